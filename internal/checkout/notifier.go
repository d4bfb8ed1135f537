package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gfontenele/quickshop/internal/domain"
)

// EmailNotifier posts the confirmation to the email service directly. It
// is the broker-less alternative to the Kafka worker; deployments with a
// broker publish the event instead and let the worker deliver.
type EmailNotifier struct {
	baseURL string
	client  *http.Client
}

func NewEmailNotifier(baseURL string, client *http.Client) *EmailNotifier {
	return &EmailNotifier{
		baseURL: baseURL,
		client:  client,
	}
}

type sendConfirmationRequest struct {
	CustomerEmail string             `json:"customerEmail"`
	Transaction   domain.Transaction `json:"transaction"`
}

func (n *EmailNotifier) SendConfirmation(ctx context.Context, recipient string, tx *domain.Transaction) error {
	body, err := json.Marshal(sendConfirmationRequest{
		CustomerEmail: recipient,
		Transaction:   *tx,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/send-confirmation", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
