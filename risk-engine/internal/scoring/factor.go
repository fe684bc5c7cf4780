// Package scoring turns a transaction and its user's recent behaviour into a
// bounded risk score by summing independent factors.
package scoring

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction carries the fields the factors read. Empty strings and an
// invalid Amount mean the value was not supplied.
type Transaction struct {
	Amount       decimal.NullDecimal
	Location     string
	MerchantType string
}

// Context is the behavioural snapshot read from the cache before scoring.
type Context struct {
	RecentFraudCount int
	RecentFrequency  int
}

// Factor contributes one partial score. Implementations must be pure.
type Factor interface {
	Name() string
	Score(tx Transaction, rc Context) float64
}

type AmountFactor struct {
	High, Medium decimal.Decimal
	HighWeight   float64
	MediumWeight float64
	BaseWeight   float64
}

func (AmountFactor) Name() string { return "amount" }

func (f AmountFactor) Score(tx Transaction, _ Context) float64 {
	if !tx.Amount.Valid {
		return f.BaseWeight
	}
	switch {
	case tx.Amount.Decimal.GreaterThan(f.High):
		return f.HighWeight
	case tx.Amount.Decimal.GreaterThan(f.Medium):
		return f.MediumWeight
	default:
		return f.BaseWeight
	}
}

// KeywordFactor scores a text field by case-insensitive substring match.
// A missing value scores MissingWeight.
type KeywordFactor struct {
	FactorName    string
	Field         func(Transaction) string
	Keywords      []string
	RiskyWeight   float64
	BaseWeight    float64
	MissingWeight float64
}

func (f KeywordFactor) Name() string { return f.FactorName }

func (f KeywordFactor) Score(tx Transaction, _ Context) float64 {
	value := strings.TrimSpace(f.Field(tx))
	if value == "" {
		return f.MissingWeight
	}
	upper := strings.ToUpper(value)
	for _, kw := range f.Keywords {
		if strings.Contains(upper, strings.ToUpper(kw)) {
			return f.RiskyWeight
		}
	}
	return f.BaseWeight
}

// LocationFactor treats a missing location as risky.
func LocationFactor(keywords []string, risky, base float64) KeywordFactor {
	return KeywordFactor{
		FactorName:    "location",
		Field:         func(tx Transaction) string { return tx.Location },
		Keywords:      keywords,
		RiskyWeight:   risky,
		BaseWeight:    base,
		MissingWeight: risky,
	}
}

// MerchantFactor treats a missing merchant type as ordinary.
func MerchantFactor(keywords []string, risky, base float64) KeywordFactor {
	return KeywordFactor{
		FactorName:    "merchant",
		Field:         func(tx Transaction) string { return tx.MerchantType },
		Keywords:      keywords,
		RiskyWeight:   risky,
		BaseWeight:    base,
		MissingWeight: base,
	}
}

type FrequencyFactor struct {
	High, Medium int
	HighWeight   float64
	MediumWeight float64
}

func (FrequencyFactor) Name() string { return "frequency" }

func (f FrequencyFactor) Score(_ Transaction, rc Context) float64 {
	switch {
	case rc.RecentFrequency > f.High:
		return f.HighWeight
	case rc.RecentFrequency > f.Medium:
		return f.MediumWeight
	default:
		return 0
	}
}

type FraudHistoryFactor struct {
	PerIncident float64
	Cap         float64
}

func (FraudHistoryFactor) Name() string { return "fraud_history" }

func (f FraudHistoryFactor) Score(_ Transaction, rc Context) float64 {
	if rc.RecentFraudCount <= 0 {
		return 0
	}
	return min(float64(rc.RecentFraudCount)*f.PerIncident, f.Cap)
}

var (
	DefaultLocationKeywords = []string{"UNKNOWN", "OFFSHORE", "FOREIGN", "ANONYMOUS"}
	DefaultMerchantKeywords = []string{"CASINO", "CRYPTO", "GAMBLING", "CRYPTOCURRENCY", "DARKNET"}
)

// FactorConfig holds every tunable threshold and weight of the default
// factor list.
type FactorConfig struct {
	HighAmount         float64
	MediumAmount       float64
	AmountHighWeight   float64
	AmountMediumWeight float64
	AmountBaseWeight   float64

	LocationRiskyWeight float64
	LocationBaseWeight  float64

	MerchantRiskyWeight float64
	MerchantBaseWeight  float64

	FrequencyHigh         int
	FrequencyMedium       int
	FrequencyHighWeight   float64
	FrequencyMediumWeight float64

	FraudPerIncident float64
	FraudCap         float64
}

func DefaultFactorConfig() FactorConfig {
	return FactorConfig{
		HighAmount:            10000,
		MediumAmount:          5000,
		AmountHighWeight:      0.35,
		AmountMediumWeight:    0.20,
		AmountBaseWeight:      0.05,
		LocationRiskyWeight:   0.25,
		LocationBaseWeight:    0.05,
		MerchantRiskyWeight:   0.20,
		MerchantBaseWeight:    0.05,
		FrequencyHigh:         8,
		FrequencyMedium:       5,
		FrequencyHighWeight:   0.15,
		FrequencyMediumWeight: 0.10,
		FraudPerIncident:      0.05,
		FraudCap:              0.20,
	}
}

// DefaultFactors returns the standard factors in evaluation order, built
// from cfg as given.
func DefaultFactors(cfg FactorConfig) []Factor {
	return []Factor{
		AmountFactor{
			High:         decimal.NewFromFloat(cfg.HighAmount),
			Medium:       decimal.NewFromFloat(cfg.MediumAmount),
			HighWeight:   cfg.AmountHighWeight,
			MediumWeight: cfg.AmountMediumWeight,
			BaseWeight:   cfg.AmountBaseWeight,
		},
		LocationFactor(DefaultLocationKeywords, cfg.LocationRiskyWeight, cfg.LocationBaseWeight),
		MerchantFactor(DefaultMerchantKeywords, cfg.MerchantRiskyWeight, cfg.MerchantBaseWeight),
		FrequencyFactor{
			High:         cfg.FrequencyHigh,
			Medium:       cfg.FrequencyMedium,
			HighWeight:   cfg.FrequencyHighWeight,
			MediumWeight: cfg.FrequencyMediumWeight,
		},
		FraudHistoryFactor{PerIncident: cfg.FraudPerIncident, Cap: cfg.FraudCap},
	}
}
