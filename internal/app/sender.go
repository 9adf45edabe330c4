package app

import (
	"context"
	"fmt"
	"io"

	"github.com/deusflow/newsletter/internal/telegram"
)

// Message is one rendered digest addressed to a recipient.
type Message struct {
	Recipient string
	Subject   string
	HTMLBody  string
}

// Sender delivers a digest.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// TelegramSender posts the digest to a chat. The subject is already the
// first line of the rendered body.
type TelegramSender struct {
	Client *telegram.Client
}

func (s TelegramSender) Send(ctx context.Context, msg Message) error {
	return s.Client.SendMessage(ctx, msg.Recipient, msg.HTMLBody)
}

// WriterSender prints the digest instead of delivering it. Used for DRY_RUN.
type WriterSender struct {
	W io.Writer
}

func (s WriterSender) Send(_ context.Context, msg Message) error {
	_, err := fmt.Fprintf(s.W, "To: %s\nSubject: %s\n\n%s\n", msg.Recipient, msg.Subject, msg.HTMLBody)
	return err
}
