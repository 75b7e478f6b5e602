package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"ms-booking/internal/models"
)

// StripeAuthorizer charges through Stripe payment intents. Card errors map to
// ErrPaymentDeclined; anything else (connectivity, rate limits, Stripe-side
// failures) maps to ErrServiceUnavailable.
type StripeAuthorizer struct{}

func NewStripeAuthorizer(secretKey string) *StripeAuthorizer {
	stripe.Key = secretKey
	return &StripeAuthorizer{}
}

func (a *StripeAuthorizer) Authorize(ctx context.Context, userID int64, amount float64) error {
	// Stripe amounts are in the smallest currency unit
	amountInCents := int64(amount * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatInt(userID, 10))

	intent, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%w: %s", models.ErrPaymentDeclined, stripeErr.Code)
		}
		return fmt.Errorf("%w: stripe: %v", models.ErrServiceUnavailable, err)
	}

	if intent.Status == stripe.PaymentIntentStatusCanceled {
		return fmt.Errorf("%w: payment intent %s canceled", models.ErrPaymentDeclined, intent.ID)
	}

	return nil
}
