package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RaffleStatus string

const (
	RaffleStatusActive    RaffleStatus = "active"
	RaffleStatusCompleted RaffleStatus = "completed"
	RaffleStatusCancelled RaffleStatus = "cancelled"
)

// Raffle is the aggregate record for a numbered-ticket raffle. SoldTickets is
// kept equal to the number of claimed ticket rows by updating both inside one
// transaction; the winner fields are set exactly once, when the raffle moves
// to completed.
type Raffle struct {
	ID             uint            `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	TotalTickets   int             `json:"total_tickets"`
	SoldTickets    int             `json:"sold_tickets"`
	DrawDate       time.Time       `json:"draw_date"`
	ImageURL       string          `json:"image_url,omitempty"`
	CreatorID      uint            `json:"creator_id"`
	Status         RaffleStatus    `json:"status"`
	WinnerTicketID *uint           `json:"winner_ticket_id,omitempty"`
	WinnerUserID   *uint           `json:"winner_user_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (r *Raffle) IsActive() bool {
	return r.Status == RaffleStatusActive
}

func (r *Raffle) IsSoldOut() bool {
	return r.SoldTickets >= r.TotalTickets
}

func (r *Raffle) DrawDatePassed(now time.Time) bool {
	return !now.Before(r.DrawDate)
}

// TotalFor is the amount charged for claiming count tickets at the raffle's
// unit price.
func (r *Raffle) TotalFor(count int) decimal.Decimal {
	return r.Price.Mul(decimal.NewFromInt(int64(count)))
}

// DrawResult is the immutable outcome of a completed draw.
type DrawResult struct {
	Raffle       Raffle `json:"raffle"`
	WinnerTicket Ticket `json:"winner_ticket"`
}
