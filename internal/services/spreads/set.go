package spreads

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Variant names one of the configured spread tables.
type Variant string

const (
	VariantDefault Variant = "Default"
	VariantSuper   Variant = "Super"
	VariantKorea   Variant = "Korea"
	VariantPBOC    Variant = "PBOC China"
)

// Variants lists the selectable spread tables in display order.
func Variants() []Variant {
	return []Variant{VariantDefault, VariantSuper, VariantKorea, VariantPBOC}
}

var variantFiles = map[Variant]string{
	VariantDefault: "spreads.csv",
	VariantSuper:   "spreads_super.csv",
	VariantKorea:   "spreads_korea.csv",
	VariantPBOC:    "spreads_pboc_china.csv",
}

// Set holds the spread matrix for every variant.
type Set struct {
	matrices map[Variant]*Matrix
	logger   *zap.Logger
}

// LoadDir loads every variant's CSV from dir. The Default matrix is
// required; a missing or malformed named variant falls back to the
// Default table with a logged warning.
func LoadDir(dir string, logger *zap.Logger) (*Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	def, err := loadFile(filepath.Join(dir, variantFiles[VariantDefault]))
	if err != nil {
		return nil, errors.Wrap(err, "load default spread matrix")
	}

	matrices := map[Variant]*Matrix{VariantDefault: def}
	for _, v := range []Variant{VariantSuper, VariantKorea, VariantPBOC} {
		m, err := loadFile(filepath.Join(dir, variantFiles[v]))
		if err != nil {
			logger.Warn("spread matrix unavailable, using default",
				zap.String("variant", string(v)), zap.Error(err))
			m = def
		}
		matrices[v] = m
	}

	return &Set{matrices: matrices, logger: logger}, nil
}

// NewSet wraps prebuilt matrices; variants without a matrix resolve to
// the Default one. For tests.
func NewSet(matrices map[Variant]*Matrix, logger *zap.Logger) (*Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matrices[VariantDefault] == nil {
		return nil, errors.New("default spread matrix is required")
	}
	return &Set{matrices: matrices, logger: logger}, nil
}

// Matrix returns the table for a variant, falling back to Default for an
// unknown or unloaded variant.
func (s *Set) Matrix(v Variant) *Matrix {
	if m, ok := s.matrices[v]; ok && m != nil {
		return m
	}
	return s.matrices[VariantDefault]
}

func loadFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMatrixCSV(f)
}
