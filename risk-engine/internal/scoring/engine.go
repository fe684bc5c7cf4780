package scoring

import (
	"math"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
)

const (
	HighRiskThreshold   = 0.80
	MediumRiskThreshold = 0.60
)

// Contribution is one factor's partial score.
type Contribution struct {
	Factor string  `json:"factor"`
	Score  float64 `json:"score"`
}

type Result struct {
	Score         float64          `json:"score"`
	Level         models.RiskLevel `json:"level"`
	Contributions []Contribution   `json:"contributions"`
	TopFactor     string           `json:"topFactor"`
}

// Engine sums its factors in order. New factors are added by passing them to
// NewEngine; existing factors never change.
type Engine struct {
	factors []Factor
}

func NewEngine(factors ...Factor) *Engine {
	return &Engine{factors: factors}
}

// Score returns the clamped total in [0,1], rounded to 4 decimal places so
// downstream threshold comparisons see a stable value.
func (e *Engine) Score(tx Transaction, rc Context) float64 {
	return e.Evaluate(tx, rc).Score
}

func (e *Engine) Evaluate(tx Transaction, rc Context) Result {
	res := Result{Contributions: make([]Contribution, 0, len(e.factors))}
	var total, top float64
	for _, f := range e.factors {
		s := f.Score(tx, rc)
		res.Contributions = append(res.Contributions, Contribution{Factor: f.Name(), Score: s})
		total += s
		if s > top {
			top = s
			res.TopFactor = f.Name()
		}
	}
	res.Score = round4(math.Min(1, math.Max(0, total)))
	res.Level = Level(res.Score)
	return res
}

// Level buckets a score: >= 0.80 HIGH, >= 0.60 MEDIUM, otherwise LOW.
func Level(score float64) models.RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return models.RiskHigh
	case score >= MediumRiskThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
