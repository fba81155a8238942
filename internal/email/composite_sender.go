package email

import (
	"context"
	"fmt"
	"strings"
)

// CompositeEmailSender fans a send out to multiple Senders, e.g. SMTP delivery
// plus a file log.
type CompositeEmailSender struct {
	senders []Sender
}

// NewCompositeEmailSender creates a composite sender over the given senders.
func NewCompositeEmailSender(senders ...Sender) *CompositeEmailSender {
	return &CompositeEmailSender{senders: senders}
}

// AddSender adds a sender to the composite sender's list.
func (cs *CompositeEmailSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

// Send calls every registered sender and collects their errors into one.
func (cs *CompositeEmailSender) Send(ctx context.Context, to []string, subject string, htmlBody []byte) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no senders configured in CompositeEmailSender")
	}

	var allErrors []string
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, htmlBody); err != nil {
			allErrors = append(allErrors, err.Error())
		}
	}

	if len(allErrors) > 0 {
		return fmt.Errorf("composite email send failed: [ %s ]", strings.Join(allErrors, "; "))
	}
	return nil
}
