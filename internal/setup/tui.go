package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fxdesk/fxdesk/config"
	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes the result
// to config.gen.yaml.
func RunTUI() error {
	var (
		pair            string
		orderSizeStr    string
		variant         string
		listenAddr      string
		tickIntervalStr string
		confirm         bool
	)

	// defaults
	orderSizeStr = "10"
	variant = string(spreads.VariantDefault)
	listenAddr = ":8087"
	tickIntervalStr = "100ms"

	// step 1: pair
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FXDESK CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up your quoting terminal.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PAIR"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Active Pair").
				Description("Six letters, underscore optional (e.g. EUR_USD)").
				Value(&pair).
				Validate(func(s string) error {
					_, err := domain.ParsePair(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: order size
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FXDESK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ORDER SIZE"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Order Size (millions)").
				Description("Positive number, e.g. 10 or 12.5").
				Value(&orderSizeStr).
				Validate(validateOrderSize),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: spread table
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FXDESK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: SPREAD TABLE"))
	options := make([]huh.Option[string], 0, len(spreads.Variants()))
	for _, v := range spreads.Variants() {
		options = append(options, huh.NewOption(string(v), string(v)))
	}
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Spread Table").
				Options(options...).
				Value(&variant),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 4: service settings
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FXDESK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: SERVICE"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("HTTP Listen Address").
				Value(&listenAddr),
			huh.NewInput().
				Title("Feed Tick Interval").
				Description("Duration string (e.g. 100ms, 1s)").
				Value(&tickIntervalStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FXDESK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Pair: %s\nOrder Size: %sm\nSpread Table: %s\nListen: %s\nTick Interval: %s\n",
		pair, orderSizeStr, variant, listenAddr, tickIntervalStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	tickInterval, _ := time.ParseDuration(tickIntervalStr)

	cfgTmp := config.ConfigTmp{
		Pair:         pair,
		OrderSize:    orderSizeStr,
		Variant:      variant,
		ListenAddr:   listenAddr,
		TickInterval: tickInterval,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting terminal...", filename)))
	time.Sleep(1500 * time.Millisecond)
	return nil
}

func validateOrderSize(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	return nil
}
