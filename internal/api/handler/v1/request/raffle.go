package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateRaffleRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	TotalTickets int    `json:"total_tickets"`
	DrawDate     string `json:"draw_date" format:"RFC 3339"`
	ImageURL     string `json:"image_url"`
}

func (req *CreateRaffleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Required, validation.Length(0, 1000)),
		validation.Field(&req.Price, validation.Required),
		validation.Field(&req.TotalTickets, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&req.DrawDate, validation.Required, validation.Date(`2006-01-02T15:04:05Z07:00`)),
	)
}

type PurchaseTicketsRequest struct {
	Numbers []int `json:"numbers"`
}

func (req *PurchaseTicketsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Numbers,
			validation.Required,
			validation.Length(1, 1000),
			validation.Each(validation.Min(1), validation.Max(1000)),
		),
	)
}
