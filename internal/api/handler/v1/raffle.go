package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rifadigital/rifa-api/internal/api/handler/v1/request"
	"github.com/rifadigital/rifa-api/internal/api/handler/v1/response"
	"github.com/rifadigital/rifa-api/internal/domain"
	"github.com/rifadigital/rifa-api/internal/repository/dao"
	"github.com/rifadigital/rifa-api/internal/service"
)

// Artwork uploads are capped at 5 MiB.
const maxImageSize = 5 << 20

type RaffleService interface {
	CreateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
	GetRaffle(ctx context.Context, id uint) (domain.Raffle, []domain.Ticket, error)
	ListActiveRaffles(ctx context.Context) ([]domain.Raffle, error)
	ListRafflesByCreator(ctx context.Context, creatorID uint) ([]domain.Raffle, error)
	PurchaseTickets(ctx context.Context, raffleID uint, numbers []int, buyerID uint) (domain.Purchase, error)
	Draw(ctx context.Context, raffleID, callerID uint) (domain.DrawResult, error)
	CancelRaffle(ctx context.Context, raffleID, callerID uint) (domain.Raffle, error)
	GetUserTickets(ctx context.Context, userID uint) ([]domain.RaffleTickets, error)
	SetRaffleImage(ctx context.Context, raffleID, callerID uint, filename string, data []byte) (string, error)
}

type RaffleHandler struct {
	svc RaffleService
}

func NewRaffleHandler(svc RaffleService) *RaffleHandler {
	return &RaffleHandler{
		svc: svc,
	}
}

// HandleListRaffles godoc
// @Summary      List active raffles
// @Tags         raffles
// @Produce      json
// @Success      200  {array}   domain.Raffle
// @Failure      500  {object}  response.Err
// @Router       /raffles [get]
func (h *RaffleHandler) HandleListRaffles(ctx *gin.Context) {
	raffles, err := h.svc.ListActiveRaffles(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListRaffles -> h.svc.ListActiveRaffles -> %w", err)
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, raffles)
}

// HandleGetRaffle godoc
// @Summary      Get a raffle with its ticket grid
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      int  true  "Raffle ID"
// @Success      200       {object}  response.RaffleDetailResponse
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID} [get]
func (h *RaffleHandler) HandleGetRaffle(ctx *gin.Context) {
	raffleID, respErr := parseRaffleID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffle, tickets, err := h.svc.GetRaffle(ctx.Request.Context(), raffleID)
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
			return
		}

		err = fmt.Errorf("v1.HandleGetRaffle -> h.svc.GetRaffle -> %w", err)
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.RaffleDetailResponse{
		Raffle:  raffle,
		Tickets: tickets,
	})
}

// HandleCreateRaffle godoc
// @Summary      Create a raffle
// @Description  Creates the raffle and materializes its full ticket range 1..total_tickets.
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateRaffleRequest  true  "Raffle details"
// @Success      201    {object}  domain.Raffle
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /raffles [post]
// @Security     BearerAuth
func (h *RaffleHandler) HandleCreateRaffle(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.CreateRaffleRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	price, err := decimal.NewFromString(input.Price)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid price: %w", err)))
		return
	}

	drawDate, err := time.Parse(time.RFC3339, input.DrawDate)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid draw date: %w", err)))
		return
	}

	raffle := domain.Raffle{
		Title:        input.Title,
		Description:  input.Description,
		Price:        price,
		TotalTickets: input.TotalTickets,
		DrawDate:     drawDate,
		ImageURL:     input.ImageURL,
		CreatorID:    userID,
	}

	created, err := h.svc.CreateRaffle(ctx.Request.Context(), raffle)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCapacity) ||
			errors.Is(err, service.ErrInvalidPrice) ||
			errors.Is(err, service.ErrInvalidDrawDate) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleCreateRaffle -> h.svc.CreateRaffle -> %w", err)
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandlePurchaseTickets godoc
// @Summary      Purchase specific ticket numbers
// @Description  Claims the requested numbers for the caller. The claim is all-or-nothing; on conflict nothing is claimed and the caller should refresh availability.
// @Tags         raffles
// @Accept       json
// @Produce      json
// @Param        raffleID  path      int                             true  "Raffle ID"
// @Param        input     body      request.PurchaseTicketsRequest  true  "Ticket numbers"
// @Success      200       {object}  response.PurchaseResponse
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/tickets/purchase [post]
// @Security     BearerAuth
func (h *RaffleHandler) HandlePurchaseTickets(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffleID, respErr := parseRaffleID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.PurchaseTicketsRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	purchase, err := h.svc.PurchaseTickets(ctx.Request.Context(), raffleID, input.Numbers, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrEmptySelection),
			errors.Is(err, service.ErrRaffleNotActive):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrTicketsUnavailable):
			response.RenderErr(ctx, response.ErrConflict(service.ErrTicketsUnavailable))
		default:
			err = fmt.Errorf("v1.HandlePurchaseTickets -> h.svc.PurchaseTickets -> %w", err)
			renderServiceErr(ctx, err)
		}
		return
	}

	ctx.JSON(http.StatusOK, response.NewPurchaseResponse(purchase))
}

// HandleDraw godoc
// @Summary      Draw the raffle winner
// @Description  Picks one sold ticket uniformly at random and completes the raffle. One-shot; a second call fails.
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      int  true  "Raffle ID"
// @Success      200       {object}  response.DrawResponse
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/draw [post]
// @Security     BearerAuth
func (h *RaffleHandler) HandleDraw(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffleID, respErr := parseRaffleID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	result, err := h.svc.Draw(ctx.Request.Context(), raffleID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrNotCreator):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrAlreadyDrawn):
			response.RenderErr(ctx, response.ErrConflict(service.ErrAlreadyDrawn))
		case errors.Is(err, service.ErrRaffleNotActive),
			errors.Is(err, service.ErrNoEligibleTickets),
			errors.Is(err, service.ErrDrawTooEarly):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleDraw -> h.svc.Draw -> %w", err)
			renderServiceErr(ctx, err)
		}
		return
	}

	ctx.JSON(http.StatusOK, response.DrawResponse{
		Raffle:       result.Raffle,
		WinnerTicket: result.WinnerTicket,
	})
}

// HandleCancelRaffle godoc
// @Summary      Cancel an active raffle
// @Tags         raffles
// @Produce      json
// @Param        raffleID  path      int  true  "Raffle ID"
// @Success      200       {object}  domain.Raffle
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/cancel [post]
// @Security     BearerAuth
func (h *RaffleHandler) HandleCancelRaffle(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffleID, respErr := parseRaffleID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	cancelled, err := h.svc.CancelRaffle(ctx.Request.Context(), raffleID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrNotCreator):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrAlreadyDrawn),
			errors.Is(err, service.ErrRaffleNotActive):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleCancelRaffle -> h.svc.CancelRaffle -> %w", err)
			renderServiceErr(ctx, err)
		}
		return
	}

	ctx.JSON(http.StatusOK, cancelled)
}

// HandleUploadRaffleImage godoc
// @Summary      Upload raffle artwork
// @Tags         raffles
// @Accept       multipart/form-data
// @Produce      json
// @Param        raffleID  path      int   true  "Raffle ID"
// @Param        image     formData  file  true  "Image file (max 5 MiB)"
// @Success      200       {object}  response.UploadImageResponse
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /raffles/{raffleID}/image [post]
// @Security     BearerAuth
func (h *RaffleHandler) HandleUploadRaffleImage(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffleID, respErr := parseRaffleID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("missing image file: %w", err)))
		return
	}

	if fileHeader.Size > maxImageSize {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("image must be at most 5 MiB")))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("unreadable image file: %w", err)))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("unreadable image file: %w", err)))
		return
	}

	url, err := h.svc.SetRaffleImage(ctx.Request.Context(), raffleID, userID, fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrNotCreator):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleUploadRaffleImage -> h.svc.SetRaffleImage -> %w", err)
			renderServiceErr(ctx, err)
		}
		return
	}

	ctx.JSON(http.StatusOK, response.UploadImageResponse{ImageURL: url})
}

// HandleGetMyRaffles godoc
// @Summary      List raffles created by the caller
// @Tags         raffles
// @Produce      json
// @Success      200  {array}   domain.Raffle
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /me/raffles [get]
// @Security     BearerAuth
func (h *RaffleHandler) HandleGetMyRaffles(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffles, err := h.svc.ListRafflesByCreator(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMyRaffles -> h.svc.ListRafflesByCreator -> %w", err)
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, raffles)
}

// HandleGetMyTickets godoc
// @Summary      List the caller's tickets grouped by raffle
// @Tags         raffles
// @Produce      json
// @Success      200  {array}   domain.RaffleTickets
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /me/tickets [get]
// @Security     BearerAuth
func (h *RaffleHandler) HandleGetMyTickets(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	grouped, err := h.svc.GetUserTickets(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMyTickets -> h.svc.GetUserTickets -> %w", err)
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, grouped)
}

func parseRaffleID(ctx *gin.Context) (uint, *response.Err) {
	raffleID, err := strconv.ParseUint(ctx.Param("raffleID"), 10, 64)
	if err != nil {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid raffle ID: %w", err))
	}

	return uint(raffleID), nil
}

// renderServiceErr distinguishes transient storage faults (retry later) from
// everything else (internal error).
func renderServiceErr(ctx *gin.Context, err error) {
	if dao.IsTransient(err) {
		response.RenderErr(ctx, response.ErrServiceUnavailable(err))
		return
	}

	response.RenderErr(ctx, response.ErrInternalServerError(err))
}
