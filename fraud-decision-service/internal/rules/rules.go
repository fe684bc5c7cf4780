// Package rules converts a risk score into a decision tier through an
// ordered chain of threshold rules. The first rule that matches wins.
package rules

import (
	"errors"
	"fmt"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
)

const (
	DefaultBlockThreshold  = 0.80
	DefaultReviewThreshold = 0.60
)

// ErrNoRuleMatched means the chain has no fallback rule. It is a wiring bug,
// never a property of the input.
var ErrNoRuleMatched = errors.New("no decision rule matched")

// Outcome is what a matching rule decides for a scored transaction.
type Outcome struct {
	Decision models.Decision
	Status   models.CaseStatus
	Reason   *string
}

type Rule interface {
	Name() string
	Apply(score float64) (Outcome, bool)
}

// BlockRule matches scores strictly above the threshold.
type BlockRule struct {
	Threshold float64
}

func (BlockRule) Name() string { return "block" }

func (r BlockRule) Apply(score float64) (Outcome, bool) {
	if score <= r.Threshold {
		return Outcome{}, false
	}
	reason := fmt.Sprintf("Risk score %.4f exceeds BLOCK threshold (%.2f)", score, r.Threshold)
	return Outcome{Decision: models.DecisionBlock, Status: models.CaseBlocked, Reason: &reason}, true
}

// ReviewRule matches scores at or above Threshold. Upper is only used in the
// reason text; anything above it has already been taken by BlockRule.
type ReviewRule struct {
	Threshold float64
	Upper     float64
}

func (ReviewRule) Name() string { return "review" }

func (r ReviewRule) Apply(score float64) (Outcome, bool) {
	if score < r.Threshold {
		return Outcome{}, false
	}
	reason := fmt.Sprintf("Risk score %.4f requires manual REVIEW (%.2f-%.2f range)", score, r.Threshold, r.Upper)
	return Outcome{Decision: models.DecisionReview, Status: models.CasePending, Reason: &reason}, true
}

type ApproveRule struct{}

func (ApproveRule) Name() string { return "approve" }

func (ApproveRule) Apply(float64) (Outcome, bool) {
	return Outcome{Decision: models.DecisionApprove, Status: models.CaseApproved}, true
}

type Chain struct {
	rules []Rule
}

func NewChain(rules ...Rule) *Chain {
	return &Chain{rules: rules}
}

// DefaultChain is block, review, approve with the given thresholds.
func DefaultChain(blockThreshold, reviewThreshold float64) *Chain {
	return NewChain(
		BlockRule{Threshold: blockThreshold},
		ReviewRule{Threshold: reviewThreshold, Upper: blockThreshold},
		ApproveRule{},
	)
}

func (c *Chain) Decide(score float64) (Outcome, error) {
	for _, rule := range c.rules {
		if outcome, ok := rule.Apply(score); ok {
			return outcome, nil
		}
	}
	return Outcome{}, fmt.Errorf("%w for score %.4f", ErrNoRuleMatched, score)
}
