package service

import "context"

// Mail is one outbound message.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers transactional mail (verification links, reset links).
// Sends are fire-and-forget from the domain's perspective.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}
