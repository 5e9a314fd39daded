package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/automail-support/automail/internal/ledger"
)

// fakeGenerator records the prompt it was called with and returns a canned
// reply or error.
type fakeGenerator struct {
	reply  string
	err    error
	prompt string
	user   string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userText string) (string, error) {
	f.prompt = systemPrompt
	f.user = userText
	return f.reply, f.err
}

func TestComposeGeneratedReply(t *testing.T) {
	gen := &fakeGenerator{reply: "Hello Rahul,\n\nWe are looking into it.\n\nBest regards, Tata Motors Customer Service Team"}
	c, err := New(gen)
	require.NoError(t, err)

	html, err := c.Compose(context.Background(), Input{
		Subject:  "New Complaint",
		Sender:   "rahul.sharma@gmail.com",
		Body:     "Name: Rahul Sharma\nMy Tata Nexon KA05MN1234 has an engine problem",
		TicketID: "TM123456789",
	})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	require.Contains(t, doc.Find(".header").Text(), "Ticket ID: TM123456789")
	require.Contains(t, doc.Find(".content").Text(), "We are looking into it.")
	require.Contains(t, doc.Find(".footer").Text(), "1800 209 8282")
	// Newlines in generated text become paragraph breaks.
	require.Contains(t, html, "Hello Rahul,<br>")
	require.Equal(t, "Name: Rahul Sharma\nMy Tata Nexon KA05MN1234 has an engine problem", gen.user)
}

func TestComposeFallbackOnGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("api down")}
	c, err := New(gen)
	require.NoError(t, err)

	html, err := c.Compose(context.Background(), Input{
		Sender:   "rahul.sharma@gmail.com",
		Body:     "Name: Rahul Sharma\nMy Tata Nexon KA05MN1234 has an engine problem",
		TicketID: "TM123456789",
	})
	require.NoError(t, err)

	require.Contains(t, html, "Dear Rahul Sharma,")
	require.Contains(t, html, "your Tata Nexon (Registration Number: KA05MN1234)")
	require.Contains(t, html, "confidence in your Tata Nexon and our brand")
	require.Contains(t, html, "1800-209-8282")
	require.Contains(t, html, "Ticket ID: TM123456789")
}

func TestComposeFallbackOnEmptyReply(t *testing.T) {
	gen := &fakeGenerator{reply: "   \n  "}
	c, err := New(gen)
	require.NoError(t, err)

	html, err := c.Compose(context.Background(), Input{
		Sender:   "priya@example.com",
		Body:     "my car broke down, reg MH12AB3456",
		TicketID: "TM987654321",
	})
	require.NoError(t, err)

	// No Name label and no record: sender local part is used.
	require.Contains(t, html, "Dear priya,")
	// No car model in body or record either.
	require.Contains(t, html, "your your vehicle (Registration Number: MH12AB3456)")
}

func TestComposeClosePromptSelection(t *testing.T) {
	gen := &fakeGenerator{reply: "Your complaint is closed."}
	c, err := New(gen)
	require.NoError(t, err)

	_, err = c.Compose(context.Background(), Input{
		Sender:   "rahul@example.com",
		Body:     "Issue resolved, please close the complaint. Reg KA05MN1234",
		TicketID: "TM111111111",
	})
	require.NoError(t, err)

	require.Contains(t, gen.prompt, "has requested to close their complaint")
	require.Contains(t, gen.prompt, "KA05MN1234")
	require.NotContains(t, gen.prompt, "customer service assistant")
}

func TestComposeStatusPromptCarriesRecord(t *testing.T) {
	gen := &fakeGenerator{reply: "Status update."}
	c, err := New(gen)
	require.NoError(t, err)

	rec := &ledger.Record{
		Name:               "Rahul Sharma",
		CarName:            "Tata Nexon",
		RegNo:              "KA05MN1234",
		Status:             ledger.StatusOpen,
		ActionTaken:        "Technician dispatched",
		ExpectedCompletion: "20-03-2026",
	}
	_, err = c.Compose(context.Background(), Input{
		Subject:  "Complaint status",
		Sender:   "rahul.sharma@gmail.com",
		Body:     "What is the status of my complaint? Reg KA05MN1234",
		TicketID: "TM222222222",
		Record:   rec,
	})
	require.NoError(t, err)

	require.Contains(t, gen.prompt, "- Name: Rahul Sharma")
	require.Contains(t, gen.prompt, "- Registration Number: KA05MN1234")
	require.Contains(t, gen.prompt, "- Car Model: Tata Nexon")
	require.Contains(t, gen.prompt, "- Current Complaint Status: Open")
	require.Contains(t, gen.prompt, "- Current Action Taken: Technician dispatched")
	require.Contains(t, gen.prompt, "- Expected Completion Time: 20-03-2026")
	require.Contains(t, gen.prompt, `The customer's current message is: "What is the status of my complaint? Reg KA05MN1234"`)
}

func TestComposeStatusPromptDefaultsForNewCustomer(t *testing.T) {
	gen := &fakeGenerator{reply: "Welcome."}
	c, err := New(gen)
	require.NoError(t, err)

	_, err = c.Compose(context.Background(), Input{
		Sender:   "new.customer@example.com",
		Body:     "My Tata Punch KA05MN1234 has a brakes issue",
		TicketID: "TM333333333",
	})
	require.NoError(t, err)

	require.Contains(t, gen.prompt, "- Current Complaint Status: New")
	require.Contains(t, gen.prompt, "- Current Action Taken: Your complaint has been registered")
	require.Contains(t, gen.prompt, "- Expected Completion Time: To be determined")
}

func TestMissingDetailsBody(t *testing.T) {
	body := MissingDetailsBody([]string{"Car Name", "Dealer", "Phone No"})
	require.Contains(t, body, "Dear Customer,")
	require.Contains(t, body, "Car Name, Dealer, Phone No")
	require.Contains(t, body, "Tata Motors Customer Service")
}
