package utils

import (
	"fmt"

	models "github.com/phillip/orphanage-fund-go/models"
)

// StatusNotifier emails the fundraiser coordinator when the lifecycle moves.
// Delivery is best effort; the caller logs failures and never retries into
// the lifecycle flow.
type StatusNotifier struct{}

func NewStatusNotifier() *StatusNotifier {
	return &StatusNotifier{}
}

func (n *StatusNotifier) StatusChanged(f *models.Fundraiser) error {
	subject := fmt.Sprintf("Fundraiser %q is now %s", f.EventName, f.Status)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>The status of your fundraiser <b>%s</b> changed to <b>%s</b>.</p>",
		f.CoordinatorName, f.EventName, f.Status,
	)
	if f.StatusReason != "" {
		body += fmt.Sprintf("<p>Reason: %s</p>", f.StatusReason)
	}
	return SendEmail(f.CoordinatorEmail, f.CoordinatorName, subject, body)
}
