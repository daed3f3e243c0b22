package services

import "fmt"

// ValidationError reports malformed input, naming the offending field.
// Always recoverable by the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// InvalidTransitionError reports a lifecycle transition attempted from a
// status that does not permit it. Carries the entity and the attempted
// operation for audit.
type InvalidTransitionError struct {
	EntityID string
	Op       string
	Current  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s: current status is %s", e.Op, e.EntityID, e.Current)
}

// CampaignClosedError reports a contribution attempted against a campaign
// that is not accepting money. Terminal for the donor flow.
type CampaignClosedError struct {
	CampaignID string
	Status     string
}

func (e *CampaignClosedError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("campaign %s does not exist or is not open for contributions", e.CampaignID)
	}
	return fmt.Sprintf("campaign %s is %s and no longer accepts contributions", e.CampaignID, e.Status)
}

// PaymentConfirmationError reports an external payment failure. The
// contribution is already marked FAILED; resubmitting creates a new one.
type PaymentConfirmationError struct {
	ContributionID string
	Cause          error
}

func (e *PaymentConfirmationError) Error() string {
	return fmt.Sprintf("payment confirmation failed for contribution %s: %v", e.ContributionID, e.Cause)
}

func (e *PaymentConfirmationError) Unwrap() error { return e.Cause }
