// Package message renders the user-facing notification text for a decision.
package message

import (
	"fmt"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
)

var templates = map[models.Decision]string{
	models.DecisionBlock: "Your transaction %s has been blocked due to suspicious activity. " +
		"Please contact support if this was legitimate.",
	models.DecisionReview: "Your transaction %s is under review by our fraud prevention team. " +
		"We will notify you once the review is complete.",
	models.DecisionApprove: "Your transaction %s has been approved successfully.",
}

// Build returns the message for decision. There is no fallback template.
func Build(decision models.Decision, transactionID string) (string, error) {
	tmpl, ok := templates[decision]
	if !ok {
		return "", fmt.Errorf("no notification template for decision %q", decision)
	}
	return fmt.Sprintf(tmpl, transactionID), nil
}
