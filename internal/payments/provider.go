package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrSignatureMismatch = errors.New("payment signature verification failed")

// ProviderOrder is what the gateway hands back when an order is opened.
type ProviderOrder struct {
	ProviderOrderID string
	Amount          decimal.Decimal
	Currency        string
}

// Provider abstracts the payment gateway. CreateOrder opens a payable order
// for the given amount in minor units; VerifyPayment must fail before any
// inventory is touched if the callback cannot be trusted.
type Provider interface {
	CreateOrder(ctx context.Context, orderID string, amount decimal.Decimal, currency string) (*ProviderOrder, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error
}

// HMACProvider implements the order|payment HMAC-SHA256 signature scheme
// used by checkout-callback gateways. The gateway signs
// "<order_id>|<payment_id>" with the shared secret and the client forwards
// the signature with the verify call.
type HMACProvider struct {
	keyID  string
	secret []byte
}

func NewHMACProvider(keyID, secret string) *HMACProvider {
	return &HMACProvider{keyID: keyID, secret: []byte(secret)}
}

// CreateOrder is a no-op for callback gateways: the order lives in our
// ledger and the provider-side order uses the same ID.
func (p *HMACProvider) CreateOrder(_ context.Context, orderID string, amount decimal.Decimal, currency string) (*ProviderOrder, error) {
	return &ProviderOrder{
		ProviderOrderID: orderID,
		Amount:          amount,
		Currency:        currency,
	}, nil
}

func (p *HMACProvider) VerifyPayment(_ context.Context, orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign produces the signature the gateway would send; used by tests and the
// local development checkout stub.
func (p *HMACProvider) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
