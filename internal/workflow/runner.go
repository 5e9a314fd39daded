package workflow

import (
	"context"
	"log"

	"github.com/automail-support/automail/internal/inbox"
)

// Inbox is the mailbox-access capability the cycle runs against.
type Inbox interface {
	FetchUnseen(ctx context.Context) ([]inbox.Message, error)
	MarkSeen(uid uint32) error
}

// RunCycle fetches all unseen messages and processes them strictly one at a
// time in fetch order. A failing message is logged and left unseen so a
// later cycle retries it; it never aborts the rest of the batch. Returns the
// number of messages fully handled.
func (p *Processor) RunCycle(ctx context.Context, in Inbox) (int, error) {
	msgs, err := in.FetchUnseen(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, msg := range msgs {
		out, err := p.Process(ctx, msg)
		if err != nil {
			log.Printf("Error processing message from %s: %v", msg.From, err)
			continue
		}
		if err := in.MarkSeen(msg.UID); err != nil {
			log.Printf("Warning: failed to mark message %d as seen: %v", msg.UID, err)
		}
		log.Printf("Processed message from %s: branch=%s reg_no=%s ticket=%s",
			msg.From, out.Branch, out.RegNo, out.Ticket)
		processed++
	}
	return processed, nil
}
