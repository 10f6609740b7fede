package repository

import (
	"context"
	"fmt"

	"github.com/rifadigital/rifa-api/internal/domain"
	"github.com/rifadigital/rifa-api/internal/repository/dao"
)

var (
	ErrRaffleNotFound     = dao.ErrRaffleNotFound
	ErrTicketsUnavailable = dao.ErrTicketsUnavailable
	ErrRaffleNotActive    = dao.ErrRaffleNotActive
	ErrAlreadyDrawn       = dao.ErrAlreadyDrawn
)

type RaffleDAO interface {
	InsertWithTickets(ctx context.Context, raffle dao.Raffle) (dao.Raffle, error)
	FindByID(ctx context.Context, id uint) (dao.Raffle, error)
	FindActive(ctx context.Context) ([]dao.Raffle, error)
	FindByCreator(ctx context.Context, creatorID uint) ([]dao.Raffle, error)
	FindTickets(ctx context.Context, raffleID uint) ([]dao.Ticket, error)
	FindSoldTickets(ctx context.Context, raffleID uint) ([]dao.Ticket, error)
	FindTicketsByOwner(ctx context.Context, ownerID uint) ([]dao.Ticket, error)
	ClaimTickets(ctx context.Context, raffleID uint, numbers []int, ownerID uint) ([]dao.Ticket, error)
	CommitWinner(ctx context.Context, raffleID, ticketID, userID uint) (dao.Raffle, error)
	Cancel(ctx context.Context, raffleID uint) (dao.Raffle, error)
	UpdateImageURL(ctx context.Context, raffleID uint, url string) error
}

type RaffleRepository struct {
	dao RaffleDAO
}

func NewRaffleRepository(dao RaffleDAO) *RaffleRepository {
	return &RaffleRepository{
		dao: dao,
	}
}

func (r *RaffleRepository) CreateWithTickets(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	created, err := r.dao.InsertWithTickets(ctx, r.domainToDao(raffle))
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.InsertWithTickets -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RaffleRepository) FindByID(ctx context.Context, id uint) (domain.Raffle, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RaffleRepository) FindActive(ctx context.Context) ([]domain.Raffle, error) {
	found, err := r.dao.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindActive -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *RaffleRepository) FindByCreator(ctx context.Context, creatorID uint) ([]domain.Raffle, error) {
	found, err := r.dao.FindByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByCreator -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *RaffleRepository) FindTickets(ctx context.Context, raffleID uint) ([]domain.Ticket, error) {
	found, err := r.dao.FindTickets(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTickets -> %w", err)
	}

	return r.ticketDaosToDomain(found), nil
}

func (r *RaffleRepository) FindSoldTickets(ctx context.Context, raffleID uint) ([]domain.Ticket, error) {
	found, err := r.dao.FindSoldTickets(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindSoldTickets -> %w", err)
	}

	return r.ticketDaosToDomain(found), nil
}

func (r *RaffleRepository) FindTicketsByOwner(ctx context.Context, ownerID uint) ([]domain.Ticket, error) {
	found, err := r.dao.FindTicketsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTicketsByOwner -> %w", err)
	}

	return r.ticketDaosToDomain(found), nil
}

func (r *RaffleRepository) ClaimTickets(ctx context.Context, raffleID uint, numbers []int, ownerID uint) ([]domain.Ticket, error) {
	claimed, err := r.dao.ClaimTickets(ctx, raffleID, numbers, ownerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ClaimTickets -> %w", err)
	}

	return r.ticketDaosToDomain(claimed), nil
}

func (r *RaffleRepository) CommitWinner(ctx context.Context, raffleID, ticketID, userID uint) (domain.Raffle, error) {
	updated, err := r.dao.CommitWinner(ctx, raffleID, ticketID, userID)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.CommitWinner -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *RaffleRepository) Cancel(ctx context.Context, raffleID uint) (domain.Raffle, error) {
	updated, err := r.dao.Cancel(ctx, raffleID)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *RaffleRepository) UpdateImageURL(ctx context.Context, raffleID uint, url string) error {
	if err := r.dao.UpdateImageURL(ctx, raffleID, url); err != nil {
		return fmt.Errorf("r.dao.UpdateImageURL -> %w", err)
	}

	return nil
}

func (r *RaffleRepository) domainToDao(raffle domain.Raffle) dao.Raffle {
	return dao.Raffle{
		ID:             raffle.ID,
		Title:          raffle.Title,
		Description:    raffle.Description,
		Price:          raffle.Price,
		TotalTickets:   raffle.TotalTickets,
		SoldTickets:    raffle.SoldTickets,
		DrawDate:       raffle.DrawDate,
		ImageURL:       raffle.ImageURL,
		CreatorID:      raffle.CreatorID,
		Status:         string(raffle.Status),
		WinnerTicketID: raffle.WinnerTicketID,
		WinnerUserID:   raffle.WinnerUserID,
		CreatedAt:      raffle.CreatedAt,
		UpdatedAt:      raffle.UpdatedAt,
	}
}

func (r *RaffleRepository) daoToDomain(raffle dao.Raffle) domain.Raffle {
	return domain.Raffle{
		ID:             raffle.ID,
		Title:          raffle.Title,
		Description:    raffle.Description,
		Price:          raffle.Price,
		TotalTickets:   raffle.TotalTickets,
		SoldTickets:    raffle.SoldTickets,
		DrawDate:       raffle.DrawDate,
		ImageURL:       raffle.ImageURL,
		CreatorID:      raffle.CreatorID,
		Status:         domain.RaffleStatus(raffle.Status),
		WinnerTicketID: raffle.WinnerTicketID,
		WinnerUserID:   raffle.WinnerUserID,
		CreatedAt:      raffle.CreatedAt,
		UpdatedAt:      raffle.UpdatedAt,
	}
}

func (r *RaffleRepository) daosToDomain(raffles []dao.Raffle) []domain.Raffle {
	result := make([]domain.Raffle, len(raffles))
	for i, raffle := range raffles {
		result[i] = r.daoToDomain(raffle)
	}

	return result
}

func (r *RaffleRepository) ticketDaoToDomain(ticket dao.Ticket) domain.Ticket {
	return domain.Ticket{
		ID:          ticket.ID,
		RaffleID:    ticket.RaffleID,
		Number:      ticket.Number,
		OwnerID:     ticket.OwnerID,
		PurchasedAt: ticket.PurchasedAt,
	}
}

func (r *RaffleRepository) ticketDaosToDomain(tickets []dao.Ticket) []domain.Ticket {
	result := make([]domain.Ticket, len(tickets))
	for i, ticket := range tickets {
		result[i] = r.ticketDaoToDomain(ticket)
	}

	return result
}
