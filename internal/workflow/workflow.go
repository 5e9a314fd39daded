// Package workflow holds the per-message decision logic: extract the
// registration number, branch on new vs existing customer, advance complaint
// state, and hand reply content to the mail sender.
package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/automail-support/automail/internal/classify"
	"github.com/automail-support/automail/internal/compose"
	"github.com/automail-support/automail/internal/email"
	"github.com/automail-support/automail/internal/extract"
	"github.com/automail-support/automail/internal/history"
	"github.com/automail-support/automail/internal/inbox"
	"github.com/automail-support/automail/internal/ledger"
)

// Dates in the ledger use the support team's dd-mm-yyyy convention.
const dateLayout = "02-01-2006"

const closedAction = "Complaint closed as per customer request"

// Branch identifies which path a message took through the workflow.
type Branch string

const (
	BranchMissingDetails Branch = history.BranchMissingDetails
	BranchNewComplaint   Branch = history.BranchNewComplaint
	BranchStatusUpdate   Branch = history.BranchStatusUpdate
	BranchClosed         Branch = history.BranchClosed
)

// Outcome summarizes the handling of one message.
type Outcome struct {
	Branch  Branch
	RegNo   string
	Ticket  string
	Missing []string // field labels requested from the customer
}

// Processor wires the workflow's collaborators. Clock and ticket source are
// injectable for deterministic tests.
type Processor struct {
	From     string // outbound sender identity
	Ledger   *ledger.Ledger
	Saver    *ledger.Saver
	Composer *compose.Composer
	Sender   email.Sender
	History  *history.Store // optional

	Now       func() time.Time
	NewTicket func() string
}

func NewProcessor(from string, l *ledger.Ledger, s *ledger.Saver, c *compose.Composer, sender email.Sender, h *history.Store) *Processor {
	return &Processor{
		From:      from,
		Ledger:    l,
		Saver:     s,
		Composer:  c,
		Sender:    sender,
		History:   h,
		Now:       time.Now,
		NewTicket: NewTicket,
	}
}

// Process handles one inbound message end to end. An error means the message
// was not fully handled and should stay unseen for a later retry; ledger
// persistence problems are logged, not surfaced, since the customer already
// received a reply.
func (p *Processor) Process(ctx context.Context, msg inbox.Message) (*Outcome, error) {
	body := msg.PlainBody()

	regNo, ok := extract.Detail(body, extract.FieldRegNo)
	if !ok {
		// No registration number: ask for it and leave the ledger untouched.
		missing := []string{extract.FieldRegNo.Label()}
		if err := p.sendMissingDetails(ctx, msg.From, missing); err != nil {
			return nil, err
		}
		out := &Outcome{Branch: BranchMissingDetails, Missing: missing}
		p.record(msg, out)
		return out, nil
	}

	var out *Outcome
	var err error
	if _, found := p.Ledger.Lookup(regNo); !found {
		out, err = p.handleNewCustomer(ctx, msg, body, regNo)
	} else {
		out, err = p.handleExistingCustomer(ctx, msg, body, regNo)
	}
	if err != nil {
		return nil, err
	}

	p.persist()
	p.record(msg, out)
	return out, nil
}

func (p *Processor) handleNewCustomer(ctx context.Context, msg inbox.Message, body, regNo string) (*Outcome, error) {
	carName, haveCar := extract.Detail(body, extract.FieldCarName)
	dealer, haveDealer := extract.Detail(body, extract.FieldDealer)
	phoneNo, havePhone := extract.Detail(body, extract.FieldPhoneNo)

	var missing []string
	if !haveCar {
		missing = append(missing, extract.FieldCarName.Label())
	}
	if !haveDealer {
		missing = append(missing, extract.FieldDealer.Label())
	}
	if !havePhone {
		missing = append(missing, extract.FieldPhoneNo.Label())
	}
	if len(missing) > 0 {
		if err := p.sendMissingDetails(ctx, msg.From, missing); err != nil {
			return nil, err
		}
		return &Outcome{Branch: BranchMissingDetails, RegNo: regNo, Missing: missing}, nil
	}

	ticket := p.NewTicket()
	name := msg.FromName
	if name == "" {
		name = extract.NameFromAddress(msg.From)
	}

	p.Ledger.Upsert(ledger.Record{
		Name:        name,
		Email:       msg.From,
		CarName:     carName,
		RegNo:       regNo,
		Dealer:      dealer,
		Area:        classify.AreaFromRegNo(regNo),
		PhoneNo:     phoneNo,
		ProblemArea: classify.ProblemArea(body),
		Complaints:  fmt.Sprintf("Ticket %s: %s", ticket, body),
		Status:      ledger.StatusOpen,
		RaisedDate:  p.Now().Format(dateLayout),
	})

	// The reply for a brand-new complaint carries no prior customer context.
	html, err := p.Composer.Compose(ctx, compose.Input{
		Subject:  "New Complaint",
		Sender:   msg.From,
		Body:     body,
		TicketID: ticket,
	})
	if err != nil {
		return nil, err
	}
	if err := p.sendReply(ctx, msg.From, "Re: New Complaint", html); err != nil {
		return nil, err
	}

	return &Outcome{Branch: BranchNewComplaint, RegNo: regNo, Ticket: ticket}, nil
}

func (p *Processor) handleExistingCustomer(ctx context.Context, msg inbox.Message, body, regNo string) (*Outcome, error) {
	branch := BranchStatusUpdate
	if classify.CloseRequested(body) {
		status := ledger.StatusClosed
		action := closedAction
		completion := p.Now().Format(dateLayout)
		p.Ledger.UpdateFields(regNo, ledger.FieldUpdates{
			Status:             &status,
			ActionTaken:        &action,
			ExpectedCompletion: &completion,
		})
		branch = BranchClosed
	}

	// Re-read so the reply reflects a just-applied close.
	rec, _ := p.Ledger.Lookup(regNo)

	ticket := p.NewTicket()
	html, err := p.Composer.Compose(ctx, compose.Input{
		Subject:  msg.Subject,
		Sender:   msg.From,
		Body:     body,
		TicketID: ticket,
		Record:   &rec,
	})
	if err != nil {
		return nil, err
	}
	if err := p.sendReply(ctx, msg.From, "Re: "+msg.Subject, html); err != nil {
		return nil, err
	}

	return &Outcome{Branch: branch, RegNo: regNo, Ticket: ticket}, nil
}

func (p *Processor) sendMissingDetails(ctx context.Context, to string, missing []string) error {
	res := p.Sender.Send(ctx, email.Message{
		To:      to,
		From:    p.From,
		Subject: compose.MissingDetailsSubject,
		Body:    compose.MissingDetailsBody(missing),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to send missing-details request: %w", res.Error)
	}
	return nil
}

func (p *Processor) sendReply(ctx context.Context, to, subject, html string) error {
	res := p.Sender.Send(ctx, email.Message{
		To:       to,
		From:     p.From,
		Subject:  subject,
		Body:     compose.PlainTextNotice,
		HTMLBody: html,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to send reply: %w", res.Error)
	}
	return nil
}

// persist saves the ledger through the retrying saver. Failures are logged
// only; the customer has already been answered.
func (p *Processor) persist() {
	if p.Saver == nil {
		return
	}
	path, err := p.Saver.Save(p.Ledger)
	if err != nil {
		log.Printf("Error persisting ledger: %v", err)
		return
	}
	if p.Saver.State() == ledger.SaveFallbackWritten {
		log.Printf("Ledger written to fallback path %s", path)
	}
}

func (p *Processor) record(msg inbox.Message, out *Outcome) {
	if p.History == nil {
		return
	}
	outcome := ""
	if len(out.Missing) > 0 {
		outcome = "requested: " + strings.Join(out.Missing, ", ")
	}
	entry := &history.Entry{
		RegNo:       out.RegNo,
		Ticket:      out.Ticket,
		Branch:      string(out.Branch),
		Sender:      msg.From,
		Subject:     msg.Subject,
		ProblemArea: classify.ProblemArea(msg.PlainBody()),
		Outcome:     outcome,
		ProcessedAt: p.Now(),
	}
	if err := p.History.Add(entry); err != nil {
		log.Printf("Warning: failed to record history entry: %v", err)
	}
}
