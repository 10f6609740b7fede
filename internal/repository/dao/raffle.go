package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrRaffleNotFound     = errors.New("raffle not found")
	ErrTicketsUnavailable = errors.New("tickets unavailable")
	ErrRaffleNotActive    = errors.New("raffle not active")
	ErrAlreadyDrawn       = errors.New("raffle already drawn")
)

type Raffle struct {
	ID uint `gorm:"primaryKey"`

	Title       string          `gorm:"not null"`
	Description string          `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	TotalTickets int `gorm:"not null"`
	SoldTickets  int `gorm:"not null;default:0"`

	DrawDate time.Time `gorm:"not null"`
	ImageURL string

	CreatorID uint   `gorm:"not null;index"`
	Status    string `gorm:"not null;default:active;index"`

	WinnerTicketID *uint
	WinnerUserID   *uint

	Tickets []Ticket `gorm:"foreignKey:RaffleID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Ticket struct {
	ID uint `gorm:"primaryKey"`

	RaffleID uint `gorm:"not null;uniqueIndex:idx_tickets_raffle_number"`
	Number   int  `gorm:"not null;uniqueIndex:idx_tickets_raffle_number"`

	OwnerID     *uint `gorm:"index"`
	PurchasedAt *time.Time
}

type RaffleDAO struct {
	db *gorm.DB
}

func NewRaffleDAO(db *gorm.DB) *RaffleDAO {
	return &RaffleDAO{
		db: db,
	}
}

// InsertWithTickets creates the raffle row and its full ticket range
// 1..TotalTickets in one transaction. Either both halves persist or neither
// does.
func (d *RaffleDAO) InsertWithTickets(ctx context.Context, raffle Raffle) (Raffle, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&raffle).Error; err != nil {
			return err
		}

		tickets := make([]Ticket, raffle.TotalTickets)
		for i := range tickets {
			tickets[i] = Ticket{
				RaffleID: raffle.ID,
				Number:   i + 1,
			}
		}

		return tx.CreateInBatches(tickets, 200).Error
	})
	if err != nil {
		return Raffle{}, err
	}

	return raffle, nil
}

func (d *RaffleDAO) FindByID(ctx context.Context, id uint) (Raffle, error) {
	var raffle Raffle

	result := d.db.WithContext(ctx).First(&raffle, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

func (d *RaffleDAO) FindActive(ctx context.Context) ([]Raffle, error) {
	var raffles []Raffle

	result := d.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("created_at DESC").
		Find(&raffles)
	if result.Error != nil {
		return nil, result.Error
	}

	return raffles, nil
}

func (d *RaffleDAO) FindByCreator(ctx context.Context, creatorID uint) ([]Raffle, error) {
	var raffles []Raffle

	result := d.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&raffles)
	if result.Error != nil {
		return nil, result.Error
	}

	return raffles, nil
}

func (d *RaffleDAO) FindTickets(ctx context.Context, raffleID uint) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("number ASC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

// FindSoldTickets returns the claimed subset of a raffle's ledger.
func (d *RaffleDAO) FindSoldTickets(ctx context.Context, raffleID uint) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Where("raffle_id = ? AND owner_id IS NOT NULL", raffleID).
		Order("number ASC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *RaffleDAO) FindTicketsByOwner(ctx context.Context, ownerID uint) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("raffle_id ASC, number ASC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

// ClaimTickets marks the requested numbers as owned by ownerID, but only the
// ones still unowned, and only if that covers the whole request. The batch
// UPDATE is conditional on owner_id IS NULL, so a concurrent claim on an
// overlapping set makes one of the two transactions match fewer rows than it
// asked for; that transaction rolls back and reports ErrTicketsUnavailable.
// The raffle's sold_tickets counter moves in the same transaction, keeping
// sold_tickets equal to the count of claimed rows for every reader.
func (d *RaffleDAO) ClaimTickets(ctx context.Context, raffleID uint, numbers []int, ownerID uint) ([]Ticket, error) {
	var claimed []Ticket

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var raffle Raffle
		if err := tx.Select("id").First(&raffle, raffleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRaffleNotFound
			}

			return err
		}

		now := time.Now().UTC()
		result := tx.Model(&Ticket{}).
			Where("raffle_id = ? AND number IN ? AND owner_id IS NULL", raffleID, numbers).
			Updates(map[string]any{
				"owner_id":     ownerID,
				"purchased_at": now,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected != int64(len(numbers)) {
			// Partial match. Returning an error rolls the whole batch back,
			// so no partial claim is ever observable.
			return ErrTicketsUnavailable
		}

		err := tx.Model(&Raffle{}).
			Where("id = ?", raffleID).
			UpdateColumn("sold_tickets", gorm.Expr("sold_tickets + ?", len(numbers))).Error
		if err != nil {
			return err
		}

		return tx.
			Where("raffle_id = ? AND number IN ?", raffleID, numbers).
			Order("number ASC").
			Find(&claimed).Error
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

// CommitWinner moves the raffle from active to completed and records the
// winning ticket, guarded by a conditional update on status so that exactly
// one concurrent draw can win the transition.
func (d *RaffleDAO) CommitWinner(ctx context.Context, raffleID, ticketID, userID uint) (Raffle, error) {
	var updated Raffle

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Raffle{}).
			Where("id = ? AND status = ?", raffleID, "active").
			Updates(map[string]any{
				"status":           "completed",
				"winner_ticket_id": ticketID,
				"winner_user_id":   userID,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var current Raffle
			if err := tx.First(&current, raffleID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrRaffleNotFound
				}

				return err
			}

			if current.Status == "completed" {
				return ErrAlreadyDrawn
			}

			return ErrRaffleNotActive
		}

		return tx.First(&updated, raffleID).Error
	})
	if err != nil {
		return Raffle{}, err
	}

	return updated, nil
}

// Cancel transitions an active raffle to cancelled. Ticket rows are left
// untouched.
func (d *RaffleDAO) Cancel(ctx context.Context, raffleID uint) (Raffle, error) {
	var updated Raffle

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Raffle{}).
			Where("id = ? AND status = ?", raffleID, "active").
			Update("status", "cancelled")
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var current Raffle
			if err := tx.First(&current, raffleID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrRaffleNotFound
				}

				return err
			}

			if current.Status == "completed" {
				return ErrAlreadyDrawn
			}

			return ErrRaffleNotActive
		}

		return tx.First(&updated, raffleID).Error
	})
	if err != nil {
		return Raffle{}, err
	}

	return updated, nil
}

func (d *RaffleDAO) UpdateImageURL(ctx context.Context, raffleID uint, url string) error {
	result := d.db.WithContext(ctx).Model(&Raffle{}).
		Where("id = ?", raffleID).
		Update("image_url", url)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRaffleNotFound
	}

	return nil
}
