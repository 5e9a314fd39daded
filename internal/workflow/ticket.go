package workflow

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	ticketMu   sync.Mutex
	ticketRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewTicket generates an opaque per-reply ticket identifier: "TM" followed
// by nine digits. Tickets are embedded in outbound content only and are not
// a persistence key; repeated contacts for the same complaint get fresh
// tickets.
func NewTicket() string {
	ticketMu.Lock()
	defer ticketMu.Unlock()
	return fmt.Sprintf("TM%d", 100000000+ticketRand.Intn(900000000))
}
