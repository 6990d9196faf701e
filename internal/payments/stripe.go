package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeProvider backs the gateway with Stripe PaymentIntents. Verification
// retrieves the intent server-side instead of checking a callback signature,
// so a forged client callback can never complete a registration.
type StripeProvider struct{}

func NewStripeProvider(secretKey string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{}
}

func (p *StripeProvider) CreateOrder(_ context.Context, orderID string, amount decimal.Decimal, currency string) (*ProviderOrder, error) {
	// Stripe wants the amount in the currency's minor unit.
	minor := amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", orderID)

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return &ProviderOrder{
		ProviderOrderID: intent.ID,
		Amount:          amount,
		Currency:        currency,
	}, nil
}

func (p *StripeProvider) VerifyPayment(_ context.Context, orderID, paymentID, _ string) error {
	intent, err := paymentintent.Get(paymentID, nil)
	if err != nil {
		return fmt.Errorf("failed to retrieve payment intent %s: %w", paymentID, err)
	}
	if intent.Metadata["order_id"] != orderID {
		return fmt.Errorf("%w: payment intent does not belong to this order", ErrSignatureMismatch)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("payment intent %s has status %s", paymentID, intent.Status)
	}
	return nil
}
