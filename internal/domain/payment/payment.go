package payment

import "context"

// Authority is the external payment gateway as seen by the order flow: it
// hands out an opaque order id and can later assert a signed payment
// confirmation. Order management itself lives outside this service.
type Authority interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency string) (orderID string, err error)

	// VerifySignature checks the gateway's HMAC over orderID and paymentID.
	VerifySignature(orderID, paymentID, signature string) bool
}
