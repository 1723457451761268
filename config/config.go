package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
)

// Config is the resolved terminal configuration.
type Config struct {
	Pair         domain.Pair
	OrderSize    float64
	Variant      spreads.Variant
	SpreadsDir   string
	SettingsDir  string
	ListenAddr   string
	TickInterval time.Duration
}

type ConfigTmp struct {
	Pair         string        `yaml:"pair"`
	OrderSize    string        `yaml:"order_size"`
	Variant      string        `yaml:"variant,omitempty"`
	SpreadsDir   string        `yaml:"spreads_dir,omitempty"`
	SettingsDir  string        `yaml:"settings_dir,omitempty"`
	ListenAddr   string        `yaml:"listen_addr,omitempty"`
	TickInterval time.Duration `yaml:"tick_interval,omitempty"`
}

const (
	defaultOrderSize    = "10"
	defaultSpreadsDir   = "./data/spreads"
	defaultSettingsDir  = "./wal/settings"
	defaultListenAddr   = ":8087"
	defaultTickInterval = 100 * time.Millisecond
)

// Get resolves the configuration from a yaml file when --config is given,
// otherwise from the CLI flags.
func Get() (Config, error) {
	config := flag.String("config", "", "path to yaml config")
	pairFlag := flag.String("pair", "EUR_USD", "active pair, example: EUR_USD")
	sizeFlag := flag.String("ordersize", defaultOrderSize, "order size in millions")
	variantFlag := flag.String("variant", string(spreads.VariantDefault), "spread table variant")
	spreadsDir := flag.String("spreadsdir", defaultSpreadsDir, "directory with spread matrix csv files")
	settingsDir := flag.String("settingsdir", defaultSettingsDir, "directory for the settings WAL")
	listenAddr := flag.String("listen", defaultListenAddr, "http listen address")
	tickInterval := flag.Duration("tickinterval", defaultTickInterval, "simulated feed tick interval")
	flag.Parse()

	if *config != "" {
		return getYaml(*config)
	}

	pair, err := domain.ParsePair(*pairFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pair provided, --pair=%s: %w", *pairFlag, err)
	}
	orderSize, err := parseOrderSize(*sizeFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --ordersize provided, --ordersize=%s: %w", *sizeFlag, err)
	}
	variant, err := parseVariant(*variantFlag)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Pair:         pair,
		OrderSize:    orderSize,
		Variant:      variant,
		SpreadsDir:   *spreadsDir,
		SettingsDir:  *settingsDir,
		ListenAddr:   *listenAddr,
		TickInterval: *tickInterval,
	}, nil
}

func getYaml(path string) (Config, error) {
	var tmp ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	pair, err := domain.ParsePair(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", tmp.Pair, err)
	}

	if tmp.OrderSize == "" {
		tmp.OrderSize = defaultOrderSize
	}
	orderSize, err := parseOrderSize(tmp.OrderSize)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'order_size' param in yaml config: %w", err)
	}

	if tmp.Variant == "" {
		tmp.Variant = string(spreads.VariantDefault)
	}
	variant, err := parseVariant(tmp.Variant)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Pair:         pair,
		OrderSize:    orderSize,
		Variant:      variant,
		SpreadsDir:   tmp.SpreadsDir,
		SettingsDir:  tmp.SettingsDir,
		ListenAddr:   tmp.ListenAddr,
		TickInterval: tmp.TickInterval,
	}
	if cfg.SpreadsDir == "" {
		cfg.SpreadsDir = defaultSpreadsDir
	}
	if cfg.SettingsDir == "" {
		cfg.SettingsDir = defaultSettingsDir
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaultTickInterval
	}
	return cfg, nil
}

func parseOrderSize(s string) (float64, error) {
	size, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !size.IsPositive() {
		return 0, fmt.Errorf("order size must be positive, got %s", size)
	}
	f, _ := size.Float64()
	return f, nil
}

func parseVariant(s string) (spreads.Variant, error) {
	for _, v := range spreads.Variants() {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown spread variant %q", s)
}
