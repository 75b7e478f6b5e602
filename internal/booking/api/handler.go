package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

type BookingOrchestrator interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error)
	ListBookings(ctx context.Context, userID int64) ([]models.Booking, error)
}

type SettlementCoordinator interface {
	SettlePayment(ctx context.Context, userID int64, amount float64) (*models.SettlementResult, error)
}

type Handler struct {
	Bookings    BookingOrchestrator
	Settlements SettlementCoordinator

	validate *validator.Validate
	logger   *logger.Logger
}

func NewHandler(bookings BookingOrchestrator, settlements SettlementCoordinator, log *logger.Logger) *Handler {
	return &Handler{
		Bookings:    bookings,
		Settlements: settlements,
		validate:    validator.New(),
		logger:      log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/v1/bookings", h.CreateBooking)
	r.Get("/api/v1/bookings", h.ListBookings)
	r.Post("/api/v1/payments/settle", h.SettlePayment)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid booking request", err.Error()))
		return
	}

	confirmation, err := h.Bookings.CreateBooking(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("booking confirmed", confirmation))
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid user_id", raw))
			return
		}
		userID = parsed
	}

	bookings, err := h.Bookings.ListBookings(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("bookings", bookings))
}

func (h *Handler) SettlePayment(w http.ResponseWriter, r *http.Request) {
	var req models.SettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid settlement request", err.Error()))
		return
	}

	result, err := h.Settlements.SettlePayment(r.Context(), req.UserID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("payment settled", result))
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var mismatch *models.AmountMismatchError

	switch {
	case errors.Is(err, models.ErrInvalidTicketCount):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket count", err.Error()))
	case errors.As(err, &mismatch):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("amount mismatch", mismatch.Error()))
	case errors.Is(err, models.ErrPaymentDeclined):
		utils.WriteJSON(w, http.StatusPaymentRequired, utils.ErrorResponse("payment declined", err.Error()))
	case errors.Is(err, models.ErrEventNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("event not found", err.Error()))
	case errors.Is(err, models.ErrNothingToSettle):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("nothing to settle", err.Error()))
	case errors.Is(err, models.ErrCapacityExceeded):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("capacity exceeded", err.Error()))
	case errors.Is(err, models.ErrServiceUnavailable):
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("service unavailable", err.Error()))
	case errors.Is(err, models.ErrSettlementFailed):
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("settlement failed", err.Error()))
	default:
		if h.logger != nil {
			h.logger.Error("API", "unexpected error: "+err.Error())
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("internal error", err.Error()))
	}
}
