package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifadigital/rifa-api/internal/api/handler/v1/response"
	"github.com/rifadigital/rifa-api/internal/api/middleware"
	"github.com/rifadigital/rifa-api/internal/domain"
	"github.com/rifadigital/rifa-api/internal/service"
)

type mockRaffleService struct {
	CreateRaffleFunc         func(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	GetRaffleFunc            func(ctx context.Context, id uint) (domain.Raffle, []domain.Ticket, error)
	ListActiveRafflesFunc    func(ctx context.Context) ([]domain.Raffle, error)
	ListRafflesByCreatorFunc func(ctx context.Context, creatorID uint) ([]domain.Raffle, error)
	PurchaseTicketsFunc      func(ctx context.Context, raffleID uint, numbers []int, buyerID uint) (domain.Purchase, error)
	DrawFunc                 func(ctx context.Context, raffleID, callerID uint) (domain.DrawResult, error)
	CancelRaffleFunc         func(ctx context.Context, raffleID, callerID uint) (domain.Raffle, error)
	GetUserTicketsFunc       func(ctx context.Context, userID uint) ([]domain.RaffleTickets, error)
	SetRaffleImageFunc       func(ctx context.Context, raffleID, callerID uint, filename string, data []byte) (string, error)
}

func (m *mockRaffleService) CreateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	return m.CreateRaffleFunc(ctx, raffle)
}

func (m *mockRaffleService) GetRaffle(ctx context.Context, id uint) (domain.Raffle, []domain.Ticket, error) {
	return m.GetRaffleFunc(ctx, id)
}

func (m *mockRaffleService) ListActiveRaffles(ctx context.Context) ([]domain.Raffle, error) {
	return m.ListActiveRafflesFunc(ctx)
}

func (m *mockRaffleService) ListRafflesByCreator(ctx context.Context, creatorID uint) ([]domain.Raffle, error) {
	return m.ListRafflesByCreatorFunc(ctx, creatorID)
}

func (m *mockRaffleService) PurchaseTickets(ctx context.Context, raffleID uint, numbers []int, buyerID uint) (domain.Purchase, error) {
	return m.PurchaseTicketsFunc(ctx, raffleID, numbers, buyerID)
}

func (m *mockRaffleService) Draw(ctx context.Context, raffleID, callerID uint) (domain.DrawResult, error) {
	return m.DrawFunc(ctx, raffleID, callerID)
}

func (m *mockRaffleService) CancelRaffle(ctx context.Context, raffleID, callerID uint) (domain.Raffle, error) {
	return m.CancelRaffleFunc(ctx, raffleID, callerID)
}

func (m *mockRaffleService) GetUserTickets(ctx context.Context, userID uint) ([]domain.RaffleTickets, error) {
	return m.GetUserTicketsFunc(ctx, userID)
}

func (m *mockRaffleService) SetRaffleImage(ctx context.Context, raffleID, callerID uint, filename string, data []byte) (string, error) {
	return m.SetRaffleImageFunc(ctx, raffleID, callerID, filename, data)
}

// asUser fakes the authentication middleware by seeding the user id the way
// VerifyJWT does.
func asUser(userID uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextKeyUserID, userID)
		ctx.Next()
	}
}

func newTestRouter(svc RaffleService, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := NewRaffleHandler(svc)
	router.GET("/raffles", handler.HandleListRaffles)
	router.GET("/raffles/:raffleID", handler.HandleGetRaffle)

	authed := router.Group("")
	authed.Use(asUser(userID))
	authed.POST("/raffles", handler.HandleCreateRaffle)
	authed.POST("/raffles/:raffleID/tickets/purchase", handler.HandlePurchaseTickets)
	authed.POST("/raffles/:raffleID/draw", handler.HandleDraw)
	authed.POST("/raffles/:raffleID/cancel", handler.HandleCancelRaffle)

	return router
}

func TestRaffleHandler_HandleGetRaffle(t *testing.T) {
	raffle := domain.Raffle{
		ID:           7,
		Title:        "City Bike",
		Price:        decimal.NewFromInt(2),
		TotalTickets: 3,
		Status:       domain.RaffleStatusActive,
	}
	owner := uint(9)
	svc := &mockRaffleService{
		GetRaffleFunc: func(_ context.Context, id uint) (domain.Raffle, []domain.Ticket, error) {
			if id != 7 {
				return domain.Raffle{}, nil, service.ErrRaffleNotFound
			}
			return raffle, []domain.Ticket{
				{ID: 1, RaffleID: 7, Number: 1, OwnerID: &owner},
				{ID: 2, RaffleID: 7, Number: 2},
				{ID: 3, RaffleID: 7, Number: 3},
			}, nil
		},
	}
	router := newTestRouter(svc, 1)

	t.Run("happy path", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/raffles/7", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body response.RaffleDetailResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, uint(7), body.Raffle.ID)
		require.Len(t, body.Tickets, 3)
		assert.Equal(t, &owner, body.Tickets[0].OwnerID)
		assert.Nil(t, body.Tickets[1].OwnerID)
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/raffles/8", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/raffles/seven", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRaffleHandler_HandleCreateRaffle(t *testing.T) {
	svc := &mockRaffleService{
		CreateRaffleFunc: func(_ context.Context, raffle domain.Raffle) (domain.Raffle, error) {
			raffle.ID = 1
			raffle.Status = domain.RaffleStatusActive
			return raffle, nil
		},
	}
	router := newTestRouter(svc, 5)

	t.Run("happy path", func(t *testing.T) {
		payload := map[string]any{
			"title":         "City Bike",
			"description":   "Hardly used",
			"price":         "2.50",
			"total_tickets": 100,
			"draw_date":     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		}
		body, err := json.Marshal(payload)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/raffles", bytes.NewReader(body))
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var created domain.Raffle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, uint(1), created.ID)
		assert.Equal(t, uint(5), created.CreatorID)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name    string
			payload map[string]any
		}{
			{
				name: "missing title",
				payload: map[string]any{
					"description":   "x",
					"price":         "2.50",
					"total_tickets": 100,
					"draw_date":     time.Now().Add(time.Hour).Format(time.RFC3339),
				},
			},
			{
				name: "capacity above the cap",
				payload: map[string]any{
					"title":         "Big",
					"description":   "x",
					"price":         "2.50",
					"total_tickets": 1001,
					"draw_date":     time.Now().Add(time.Hour).Format(time.RFC3339),
				},
			},
			{
				name: "malformed draw date",
				payload: map[string]any{
					"title":         "Late",
					"description":   "x",
					"price":         "2.50",
					"total_tickets": 100,
					"draw_date":     "tomorrow",
				},
			},
			{
				name: "malformed price",
				payload: map[string]any{
					"title":         "Pricey",
					"description":   "x",
					"price":         "two fifty",
					"total_tickets": 100,
					"draw_date":     time.Now().Add(time.Hour).Format(time.RFC3339),
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				body, err := json.Marshal(tt.payload)
				require.NoError(t, err)

				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/raffles", bytes.NewReader(body))
				router.ServeHTTP(w, req)

				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})
}

func TestRaffleHandler_HandlePurchaseTickets(t *testing.T) {
	newRouter := func(purchaseErr error) *gin.Engine {
		svc := &mockRaffleService{
			PurchaseTicketsFunc: func(_ context.Context, raffleID uint, numbers []int, buyerID uint) (domain.Purchase, error) {
				if purchaseErr != nil {
					return domain.Purchase{}, purchaseErr
				}

				owner := buyerID
				tickets := make([]domain.Ticket, len(numbers))
				for i, n := range numbers {
					tickets[i] = domain.Ticket{ID: uint(i + 1), RaffleID: raffleID, Number: n, OwnerID: &owner}
				}
				return domain.Purchase{
					RaffleID:     raffleID,
					Tickets:      tickets,
					TotalCharged: decimal.NewFromInt(int64(len(numbers) * 2)),
				}, nil
			},
		}
		return newTestRouter(svc, 5)
	}

	purchase := func(router *gin.Engine, numbers []int) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]any{"numbers": numbers})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/raffles/3/tickets/purchase", bytes.NewReader(body))
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("happy path", func(t *testing.T) {
		w := purchase(newRouter(nil), []int{2, 4})
		require.Equal(t, http.StatusOK, w.Code)

		var body response.PurchaseResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, uint(3), body.RaffleID)
		assert.Equal(t, []int{2, 4}, body.Numbers)
		assert.True(t, body.TotalCharged.Equal(decimal.NewFromInt(4)))
	})

	t.Run("conflict on taken numbers", func(t *testing.T) {
		w := purchase(newRouter(service.ErrTicketsUnavailable), []int{2})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		w := purchase(newRouter(service.ErrRaffleNotFound), []int{2})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("raffle closed", func(t *testing.T) {
		w := purchase(newRouter(service.ErrRaffleNotActive), []int{2})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty selection rejected before the service", func(t *testing.T) {
		w := purchase(newRouter(nil), []int{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out-of-range number rejected", func(t *testing.T) {
		w := purchase(newRouter(nil), []int{0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRaffleHandler_HandleDraw(t *testing.T) {
	winnerTicket := uint(11)
	winnerUser := uint(5)

	newRouter := func(drawErr error) *gin.Engine {
		svc := &mockRaffleService{
			DrawFunc: func(_ context.Context, raffleID, callerID uint) (domain.DrawResult, error) {
				if drawErr != nil {
					return domain.DrawResult{}, drawErr
				}

				return domain.DrawResult{
					Raffle: domain.Raffle{
						ID:             raffleID,
						Status:         domain.RaffleStatusCompleted,
						WinnerTicketID: &winnerTicket,
						WinnerUserID:   &winnerUser,
					},
					WinnerTicket: domain.Ticket{ID: winnerTicket, RaffleID: raffleID, Number: 4, OwnerID: &winnerUser},
				}, nil
			},
		}
		return newTestRouter(svc, 5)
	}

	draw := func(router *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/raffles/3/draw", nil)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("happy path", func(t *testing.T) {
		w := draw(newRouter(nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body response.DrawResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, domain.RaffleStatusCompleted, body.Raffle.Status)
		assert.Equal(t, winnerTicket, body.WinnerTicket.ID)
	})

	t.Run("already drawn", func(t *testing.T) {
		w := draw(newRouter(service.ErrAlreadyDrawn))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("not the creator", func(t *testing.T) {
		w := draw(newRouter(service.ErrNotCreator))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("nothing sold", func(t *testing.T) {
		w := draw(newRouter(service.ErrNoEligibleTickets))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too early", func(t *testing.T) {
		w := draw(newRouter(service.ErrDrawTooEarly))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		w := draw(newRouter(service.ErrRaffleNotFound))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRaffleHandler_HandleCancelRaffle(t *testing.T) {
	newRouter := func(cancelErr error) *gin.Engine {
		svc := &mockRaffleService{
			CancelRaffleFunc: func(_ context.Context, raffleID, callerID uint) (domain.Raffle, error) {
				if cancelErr != nil {
					return domain.Raffle{}, cancelErr
				}
				return domain.Raffle{ID: raffleID, Status: domain.RaffleStatusCancelled}, nil
			},
		}
		return newTestRouter(svc, 5)
	}

	cancel := func(router *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/raffles/3/cancel", nil)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("happy path", func(t *testing.T) {
		w := cancel(newRouter(nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body domain.Raffle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, domain.RaffleStatusCancelled, body.Status)
	})

	t.Run("already drawn", func(t *testing.T) {
		w := cancel(newRouter(service.ErrAlreadyDrawn))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not the creator", func(t *testing.T) {
		w := cancel(newRouter(service.ErrNotCreator))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
