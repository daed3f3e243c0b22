package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	models "github.com/phillip/orphanage-fund-go/models"
)

// Confirmer settles a pending contribution with the payment provider. The
// provider is opaque: success, failure or latency is all the ledger sees.
type Confirmer interface {
	Confirm(ctx context.Context, c *models.Contribution) error
}

type confirmRequest struct {
	ContributionID string  `json:"contribution_id"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"method"`
	AccountRef     string  `json:"account_reference"`
	Email          string  `json:"email"`
}

// Client confirms payments over the provider's HTTP API.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// Confirm blocks until the provider answers or the timeout fires. A timeout
// is a failure; the caller marks the contribution FAILED.
func (c *Client) Confirm(ctx context.Context, ctn *models.Contribution) error {
	if c.baseURL == "" {
		return fmt.Errorf("missing PAYMENT_API_URL")
	}

	payload := confirmRequest{
		ContributionID: ctn.ID.Hex(),
		Amount:         ctn.Amount,
		Method:         string(ctn.Method),
		AccountRef:     ctn.AccountRef,
		Email:          ctn.ContributorEmail,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/confirm", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment provider unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("payment provider returned %s", resp.Status)
	}
	return nil
}
