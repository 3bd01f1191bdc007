package mail

import "context"

// Message is a plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers e-mail. It keeps application code independent of the SMTP library.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
