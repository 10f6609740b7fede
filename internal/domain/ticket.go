package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is one row of a raffle's ledger. All tickets for a raffle are created
// unclaimed at raffle creation, numbered 1..TotalTickets with no gaps. OwnerID
// and PurchasedAt are set together, once, and never change afterwards.
type Ticket struct {
	ID          uint       `json:"id"`
	RaffleID    uint       `json:"raffle_id"`
	Number      int        `json:"number"`
	OwnerID     *uint      `json:"owner_id,omitempty"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
}

func (t *Ticket) Claimed() bool {
	return t.OwnerID != nil
}

// IsWinning reports whether this ticket is the committed winner of the given
// raffle. Winning is derived, never stored on the ticket.
func (t *Ticket) IsWinning(r Raffle) bool {
	return r.Status == RaffleStatusCompleted &&
		r.WinnerTicketID != nil && *r.WinnerTicketID == t.ID
}

// RaffleTickets groups a buyer's tickets under the raffle they belong to.
type RaffleTickets struct {
	Raffle  Raffle   `json:"raffle"`
	Tickets []Ticket `json:"tickets"`
}

// Purchase is what the allocation service hands back after a fully successful
// claim.
type Purchase struct {
	RaffleID     uint            `json:"raffle_id"`
	Tickets      []Ticket        `json:"tickets"`
	TotalCharged decimal.Decimal `json:"total_charged"`
}
