package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-booking/internal/models"
)

// HTTPAuthorizer charges a user through the external payment service.
// A definitive rejection (4xx) maps to ErrPaymentDeclined; network failures
// and 5xx responses map to ErrServiceUnavailable so the caller's retry policy
// can tell them apart.
type HTTPAuthorizer struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPAuthorizer(baseURL string, timeout time.Duration) *HTTPAuthorizer {
	return &HTTPAuthorizer{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type chargeRequest struct {
	UserID int64   `json:"user_id"`
	Amount float64 `json:"amount"`
}

type chargeResponse struct {
	Status string `json:"status"`
}

func (a *HTTPAuthorizer) Authorize(ctx context.Context, userID int64, amount float64) error {
	body, err := json.Marshal(chargeRequest{UserID: userID, Amount: amount})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/payments", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: payment service: %v", models.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: payment service returned %d", models.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: payment service returned %d", models.ErrPaymentDeclined, resp.StatusCode)
	}

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: decoding payment response: %v", models.ErrServiceUnavailable, err)
	}
	if result.Status != "SUCCESS" {
		return fmt.Errorf("%w: payment status %q", models.ErrPaymentDeclined, result.Status)
	}

	return nil
}
