// Package compose assembles outbound reply content: the generation prompt,
// the deterministic fallback letter, and the HTML envelope every reply is
// wrapped in.
package compose

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"strings"

	"github.com/automail-support/automail/internal/classify"
	"github.com/automail-support/automail/internal/extract"
	"github.com/automail-support/automail/internal/ledger"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// PlainTextNotice is the text/plain part sent alongside every HTML reply.
const PlainTextNotice = "Please view this email in HTML format for the best experience."

// MissingDetailsSubject is the subject for follow-up requests.
const MissingDetailsSubject = "Additional Information Required"

// Generator drafts reply prose. A failure or empty result makes the composer
// substitute the fallback letter.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Input carries everything the composer needs for one reply.
type Input struct {
	Subject  string
	Sender   string // sender address
	Body     string // plain-text customer message
	TicketID string
	Record   *ledger.Record // nil for new customers
}

type Composer struct {
	gen  Generator
	tmpl *template.Template
}

func New(gen Generator) (*Composer, error) {
	content, err := embeddedTemplates.ReadFile("templates/reply.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded reply template: %w", err)
	}
	tmpl, err := template.New("reply").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse reply template: %w", err)
	}
	return &Composer{gen: gen, tmpl: tmpl}, nil
}

// Compose builds the HTML reply for one inbound message. Generation failures
// are recovered locally with the fallback letter; the only error surfaced is
// a template rendering failure.
func (c *Composer) Compose(ctx context.Context, in Input) (string, error) {
	regNo, _ := extract.Detail(in.Body, extract.FieldRegNo)
	carModel := c.resolveCarModel(in)
	customerName := c.resolveCustomerName(in)
	status, action, completion := c.resolveComplaintFields(in)

	var prompt string
	if classify.CloseRequested(in.Body) {
		prompt = closePrompt(regNo)
	} else {
		prompt = statusPrompt(customerName, regNo, carModel, status, action, completion, in.Body)
	}

	content, err := c.gen.Generate(ctx, prompt, in.Body)
	if err != nil || strings.TrimSpace(content) == "" {
		if err != nil {
			log.Printf("Error generating reply: %v", err)
		}
		content = fallbackLetter(customerName, carModel, regNo)
	}

	return c.renderHTML(in.TicketID, content)
}

// resolveCarModel prefers the model named in the body, then the ledger
// record, then a generic placeholder.
func (c *Composer) resolveCarModel(in Input) string {
	if model, ok := extract.Detail(in.Body, extract.FieldCarName); ok {
		return model
	}
	if in.Record != nil {
		return in.Record.CarName
	}
	return "your vehicle"
}

// resolveCustomerName prefers a "Name:" label in the body, then the ledger
// record, then the local part of the sender address.
func (c *Composer) resolveCustomerName(in Input) string {
	if name, ok := extract.NameFromBody(in.Body); ok {
		return name
	}
	if in.Record != nil {
		return in.Record.Name
	}
	return extract.NameFromAddress(in.Sender)
}

func (c *Composer) resolveComplaintFields(in Input) (status, action, completion string) {
	if in.Record != nil {
		return in.Record.Status, in.Record.ActionTaken, in.Record.ExpectedCompletion
	}
	return "New", "Your complaint has been registered", "To be determined"
}

func closePrompt(regNo string) string {
	return fmt.Sprintf(
		"The customer with registration number %s has requested to close their complaint. "+
			"Provide a polite response acknowledging the request, confirming that the complaint has been closed, "+
			"and asking if there's anything else we can assist with. Use proper spacing between paragraphs.",
		regNo)
}

func statusPrompt(name, regNo, carModel, status, action, completion, body string) string {
	return fmt.Sprintf(
		"You are a customer service assistant for Tata Motors. A customer with the following details has contacted us:\n\n"+
			"- Name: %s\n"+
			"- Registration Number: %s\n"+
			"- Car Model: %s\n"+
			"- Current Complaint Status: %s\n"+
			"- Current Action Taken: %s\n"+
			"- Expected Completion Time: %s\n\n"+
			"The customer's current message is: \"%s\"\n\n"+
			"Please provide a professional, helpful, and thorough response. Address all reported issues individually. "+
			"If the customer is asking about the status, provide the current status, action taken, and expected completion time. "+
			"Keep the response comprehensive and maintain a polite and empathetic tone. "+
			"Use proper spacing between paragraphs and ensure a clear structure in your response. "+
			"Do not use any placeholder text like [Your Name] or [Your Position]. "+
			"End the email with 'Best regards, Tata Motors Customer Service Team'.",
		name, regNo, carModel, status, action, completion, body)
}

func fallbackLetter(customerName, carModel, regNo string) string {
	return fmt.Sprintf(`Dear %s,<br><br>

Thank you for reaching out to Tata Motors Customer Service regarding your %s (Registration Number: %s). We sincerely apologize for any issues you're experiencing with your vehicle and the inconvenience this has caused.<br><br>

We have carefully noted your concerns and are committed to resolving them promptly. Our team will thoroughly investigate the issues you've reported and take appropriate action.<br><br>

Here are the immediate steps we will take:<br><br>

1. We will contact your dealership to expedite any pending service requests or part orders.<br>
2. A senior technician specializing in your vehicle model will be assigned to investigate the reported issues.<br>
3. We will schedule a comprehensive diagnostic test of your vehicle to ensure there are no other underlying problems.<br><br>

Our customer service team will contact you within the next 24 hours to schedule these services at your convenience. We aim to have your vehicle inspected and the necessary repairs initiated within the next 3-5 business days.<br><br>

Again, we deeply regret any inconvenience caused and appreciate your patience. Your satisfaction is our top priority, and we are committed to restoring your confidence in your %s and our brand.<br><br>

If you have any further questions or concerns in the meantime, please don't hesitate to contact our dedicated support line at 1800-209-8282.<br><br>

Thank you for choosing Tata Motors. We value your trust and will do our utmost to resolve these issues swiftly.<br><br>

Best regards,<br>
Tata Motors Customer Service Team`, customerName, carModel, regNo, carModel)
}

// renderHTML wraps reply text in the fixed envelope: header with ticket id,
// content block, footer with contact info.
func (c *Composer) renderHTML(ticketID, content string) (string, error) {
	data := struct {
		TicketID string
		Content  template.HTML
	}{
		TicketID: ticketID,
		// Generated text uses newlines for paragraph breaks; the fallback
		// letter already carries <br> tags.
		Content: template.HTML(strings.ReplaceAll(content, "\n", "<br>")),
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render reply: %w", err)
	}
	return buf.String(), nil
}

// MissingDetailsBody builds the plain-text follow-up listing the absent
// fields by their customer-facing names.
func MissingDetailsBody(missing []string) string {
	return fmt.Sprintf(
		"Dear Customer,\n\n"+
			"We noticed that some details are missing from your complaint:\n"+
			"%s\n\n"+
			"Please provide these details so we can assist you better.\n\n"+
			"Thank you,\n"+
			"Tata Motors Customer Service",
		strings.Join(missing, ", "))
}
