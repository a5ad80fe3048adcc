package mail

import "context"

// Mailer is the outbound email capability. Delivery failures are surfaced
// to the caller, never swallowed: a user who never receives an OTP cannot
// proceed.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
