package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	customErrors "github.com/shoemart/auth-service/internal/domain/auth/errors"
	"github.com/shoemart/auth-service/internal/infra/config"
)

const ordersURL = "https://api.razorpay.com/v1/orders"

// RazorpayAuthority talks to the gateway's order API and verifies its
// payment confirmations. The confirmation signature is an HMAC-SHA256 over
// "orderID|paymentID" keyed with the key secret.
type RazorpayAuthority struct {
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRazorpayAuthority(cfg *config.Config) *RazorpayAuthority {
	return &RazorpayAuthority{
		keyID:     cfg.RazorpayKeyID,
		keySecret: cfg.RazorpayKeySecret,
		client:    http.DefaultClient,
	}
}

func (r *RazorpayAuthority) CreateOrder(ctx context.Context, amountMinorUnits int64, currency string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amountMinorUnits,
		"currency": currency,
	})
	if err != nil {
		return "", customErrors.WrapInternal(err, "CreateOrder")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ordersURL, bytes.NewReader(payload))
	if err != nil {
		return "", customErrors.WrapInternal(err, "CreateOrder")
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", customErrors.WrapInternal(err, "CreateOrder")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", customErrors.WrapInternal(fmt.Errorf("gateway status %d", resp.StatusCode), "CreateOrder")
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", customErrors.WrapInternal(err, "CreateOrder")
	}
	return body.ID, nil
}

func (r *RazorpayAuthority) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(r.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
