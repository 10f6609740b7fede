package response

import (
	"github.com/shopspring/decimal"

	"github.com/rifadigital/rifa-api/internal/domain"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type PurchaseResponse struct {
	RaffleID     uint            `json:"raffle_id"`
	Numbers      []int           `json:"numbers"`
	TotalCharged decimal.Decimal `json:"total_charged"`
}

func NewPurchaseResponse(purchase domain.Purchase) PurchaseResponse {
	numbers := make([]int, len(purchase.Tickets))
	for i, ticket := range purchase.Tickets {
		numbers[i] = ticket.Number
	}

	return PurchaseResponse{
		RaffleID:     purchase.RaffleID,
		Numbers:      numbers,
		TotalCharged: purchase.TotalCharged,
	}
}

type RaffleDetailResponse struct {
	Raffle  domain.Raffle   `json:"raffle"`
	Tickets []domain.Ticket `json:"tickets"`
}

type DrawResponse struct {
	Raffle       domain.Raffle `json:"raffle"`
	WinnerTicket domain.Ticket `json:"winner_ticket"`
}

type UploadImageResponse struct {
	ImageURL string `json:"image_url"`
}
