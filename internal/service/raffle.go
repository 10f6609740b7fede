package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rifadigital/rifa-api/internal/blobstore"
	"github.com/rifadigital/rifa-api/internal/domain"
	"github.com/rifadigital/rifa-api/internal/repository"
)

var (
	ErrRaffleNotFound     = repository.ErrRaffleNotFound
	ErrTicketsUnavailable = repository.ErrTicketsUnavailable
	ErrRaffleNotActive    = repository.ErrRaffleNotActive
	ErrAlreadyDrawn       = repository.ErrAlreadyDrawn

	ErrInvalidCapacity   = errors.New("total tickets must be between 1 and 1000")
	ErrInvalidPrice      = errors.New("ticket price must be positive")
	ErrInvalidDrawDate   = errors.New("draw date must be in the future")
	ErrEmptySelection    = errors.New("no ticket numbers selected")
	ErrNoEligibleTickets = errors.New("no sold tickets to draw from")
	ErrDrawTooEarly      = errors.New("draw date has not been reached")
	ErrNotCreator        = errors.New("caller is not the raffle creator")
)

const (
	MinTotalTickets = 1
	MaxTotalTickets = 1000
)

type RaffleRepository interface {
	CreateWithTickets(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	FindByID(ctx context.Context, id uint) (domain.Raffle, error)
	FindActive(ctx context.Context) ([]domain.Raffle, error)
	FindByCreator(ctx context.Context, creatorID uint) ([]domain.Raffle, error)
	FindTickets(ctx context.Context, raffleID uint) ([]domain.Ticket, error)
	FindSoldTickets(ctx context.Context, raffleID uint) ([]domain.Ticket, error)
	FindTicketsByOwner(ctx context.Context, ownerID uint) ([]domain.Ticket, error)
	ClaimTickets(ctx context.Context, raffleID uint, numbers []int, ownerID uint) ([]domain.Ticket, error)
	CommitWinner(ctx context.Context, raffleID, ticketID, userID uint) (domain.Raffle, error)
	Cancel(ctx context.Context, raffleID uint) (domain.Raffle, error)
	UpdateImageURL(ctx context.Context, raffleID uint, url string) error
}

// DrawPolicy decides whether an organizer may draw before the announced draw
// date. The gate is operator policy, not a hard rule, so it lives in config.
type DrawPolicy struct {
	// AllowEarly permits drawing a sold-out raffle ahead of its draw date.
	AllowEarly bool
}

type RaffleService struct {
	repo   RaffleRepository
	blobs  blobstore.Store
	policy DrawPolicy
}

func NewRaffleService(repo RaffleRepository, blobs blobstore.Store, policy DrawPolicy) *RaffleService {
	return &RaffleService{
		repo:   repo,
		blobs:  blobs,
		policy: policy,
	}
}

// CreateRaffle persists the raffle together with its fully materialized ticket
// range. Capacity is fixed at creation and every number 1..TotalTickets exists
// as an unclaimed row before the first sale.
func (s *RaffleService) CreateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	if raffle.TotalTickets < MinTotalTickets || raffle.TotalTickets > MaxTotalTickets {
		return domain.Raffle{}, ErrInvalidCapacity
	}

	if !raffle.Price.IsPositive() {
		return domain.Raffle{}, ErrInvalidPrice
	}

	if !raffle.DrawDate.After(time.Now()) {
		return domain.Raffle{}, ErrInvalidDrawDate
	}

	raffle.Status = domain.RaffleStatusActive
	raffle.SoldTickets = 0
	raffle.WinnerTicketID = nil
	raffle.WinnerUserID = nil

	created, err := s.repo.CreateWithTickets(ctx, raffle)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.repo.CreateWithTickets -> %w", err)
	}

	return created, nil
}

func (s *RaffleService) GetRaffle(ctx context.Context, id uint) (domain.Raffle, []domain.Ticket, error) {
	raffle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	tickets, err := s.repo.FindTickets(ctx, id)
	if err != nil {
		return domain.Raffle{}, nil, fmt.Errorf("s.repo.FindTickets -> %w", err)
	}

	return raffle, tickets, nil
}

func (s *RaffleService) ListActiveRaffles(ctx context.Context) ([]domain.Raffle, error) {
	raffles, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindActive -> %w", err)
	}

	return raffles, nil
}

func (s *RaffleService) ListRafflesByCreator(ctx context.Context, creatorID uint) ([]domain.Raffle, error) {
	raffles, err := s.repo.FindByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByCreator -> %w", err)
	}

	return raffles, nil
}

// PurchaseTickets claims the requested numbers for the buyer. The claim is
// all-or-nothing: when any requested number is already owned, nothing is
// claimed and ErrTicketsUnavailable tells the caller to refresh availability
// and re-select. Purchase is deliberately not idempotent; a resubmitted
// request competes like any other.
func (s *RaffleService) PurchaseTickets(ctx context.Context, raffleID uint, numbers []int, buyerID uint) (domain.Purchase, error) {
	numbers = dedupeNumbers(numbers)
	if len(numbers) == 0 {
		return domain.Purchase{}, ErrEmptySelection
	}

	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if !raffle.IsActive() || raffle.DrawDatePassed(time.Now()) {
		return domain.Purchase{}, ErrRaffleNotActive
	}

	claimed, err := s.repo.ClaimTickets(ctx, raffleID, numbers, buyerID)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("s.repo.ClaimTickets -> %w", err)
	}

	return domain.Purchase{
		RaffleID:     raffleID,
		Tickets:      claimed,
		TotalCharged: raffle.TotalFor(len(claimed)),
	}, nil
}

// Draw selects one winner uniformly at random from the sold tickets and
// commits it exactly once. Concurrent draws race on the status transition in
// storage; the losers come back with ErrAlreadyDrawn.
func (s *RaffleService) Draw(ctx context.Context, raffleID, callerID uint) (domain.DrawResult, error) {
	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return domain.DrawResult{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if raffle.CreatorID != callerID {
		return domain.DrawResult{}, ErrNotCreator
	}

	switch raffle.Status {
	case domain.RaffleStatusCompleted:
		return domain.DrawResult{}, ErrAlreadyDrawn
	case domain.RaffleStatusCancelled:
		return domain.DrawResult{}, ErrRaffleNotActive
	}

	if !raffle.DrawDatePassed(time.Now()) {
		if !s.policy.AllowEarly || !raffle.IsSoldOut() {
			return domain.DrawResult{}, ErrDrawTooEarly
		}
	}

	sold, err := s.repo.FindSoldTickets(ctx, raffleID)
	if err != nil {
		return domain.DrawResult{}, fmt.Errorf("s.repo.FindSoldTickets -> %w", err)
	}

	if len(sold) == 0 {
		return domain.DrawResult{}, ErrNoEligibleTickets
	}

	winner, err := pickUniform(sold)
	if err != nil {
		return domain.DrawResult{}, fmt.Errorf("pickUniform -> %w", err)
	}

	updated, err := s.repo.CommitWinner(ctx, raffleID, winner.ID, *winner.OwnerID)
	if err != nil {
		return domain.DrawResult{}, fmt.Errorf("s.repo.CommitWinner -> %w", err)
	}

	return domain.DrawResult{
		Raffle:       updated,
		WinnerTicket: winner,
	}, nil
}

// CancelRaffle moves an active raffle to cancelled. Claimed tickets stay as
// they are; the raffle simply never draws.
func (s *RaffleService) CancelRaffle(ctx context.Context, raffleID, callerID uint) (domain.Raffle, error) {
	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if raffle.CreatorID != callerID {
		return domain.Raffle{}, ErrNotCreator
	}

	cancelled, err := s.repo.Cancel(ctx, raffleID)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	return cancelled, nil
}

// GetUserTickets returns the caller's tickets grouped by raffle, so clients
// can show the winning flag next to each ticket.
func (s *RaffleService) GetUserTickets(ctx context.Context, userID uint) ([]domain.RaffleTickets, error) {
	tickets, err := s.repo.FindTicketsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindTicketsByOwner -> %w", err)
	}

	raffles := make(map[uint]domain.Raffle)
	var order []uint
	for _, ticket := range tickets {
		if _, ok := raffles[ticket.RaffleID]; ok {
			continue
		}

		raffle, err := s.repo.FindByID(ctx, ticket.RaffleID)
		if err != nil {
			return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
		}

		raffles[ticket.RaffleID] = raffle
		order = append(order, ticket.RaffleID)
	}

	grouped := make([]domain.RaffleTickets, 0, len(order))
	for _, raffleID := range order {
		group := domain.RaffleTickets{Raffle: raffles[raffleID]}
		for _, ticket := range tickets {
			if ticket.RaffleID == raffleID {
				group.Tickets = append(group.Tickets, ticket)
			}
		}
		grouped = append(grouped, group)
	}

	return grouped, nil
}

// SetRaffleImage stores the artwork bytes in the blob store and records the
// resulting URL on the raffle. The URL is opaque to everything else.
func (s *RaffleService) SetRaffleImage(ctx context.Context, raffleID, callerID uint, filename string, data []byte) (string, error) {
	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return "", fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if raffle.CreatorID != callerID {
		return "", ErrNotCreator
	}

	url, err := s.blobs.Put(ctx, filename, data)
	if err != nil {
		return "", fmt.Errorf("s.blobs.Put -> %w", err)
	}

	if err = s.repo.UpdateImageURL(ctx, raffleID, url); err != nil {
		return "", fmt.Errorf("s.repo.UpdateImageURL -> %w", err)
	}

	return url, nil
}

// pickUniform draws one ticket with probability exactly 1/len(sold) using the
// operating system's CSPRNG. Winner selection must not be predictable from
// prior draws.
func pickUniform(sold []domain.Ticket) (domain.Ticket, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(sold))))
	if err != nil {
		return domain.Ticket{}, err
	}

	return sold[idx.Int64()], nil
}

func dedupeNumbers(numbers []int) []int {
	seen := make(map[int]struct{}, len(numbers))
	result := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}

	return result
}
