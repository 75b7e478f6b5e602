package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-booking/internal/booking/api"
	"ms-booking/internal/models"
)

type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingConfirmation), args.Error(1)
}

func (m *MockOrchestrator) ListBookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) SettlePayment(ctx context.Context, userID int64, amount float64) (*models.SettlementResult, error) {
	args := m.Called(userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

func setupRouter(orch *MockOrchestrator, coord *MockCoordinator) *chi.Mux {
	handler := api.NewHandler(orch, coord, nil)
	r := chi.NewRouter()
	handler.Routes(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingReturns201(t *testing.T) {
	orch := new(MockOrchestrator)
	coord := new(MockCoordinator)
	router := setupRouter(orch, coord)

	orch.On("CreateBooking", mock.Anything).Return(&models.BookingConfirmation{
		BookingID: "b1",
		Status:    models.StatusConfirmed,
	}, nil)

	rec := postJSON(t, router, "/api/v1/bookings", models.BookingRequest{
		UserID: 7, EventID: "E1", Tickets: 2, IdempotencyKey: "K1",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "b1")
	assert.Contains(t, rec.Body.String(), "CONFIRMED")
}

func TestCreateBookingInvalidTicketCountReturns400(t *testing.T) {
	orch := new(MockOrchestrator)
	router := setupRouter(orch, new(MockCoordinator))

	rec := postJSON(t, router, "/api/v1/bookings", models.BookingRequest{
		UserID: 7, EventID: "E1", Tickets: 0, IdempotencyKey: "K1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	orch.AssertNotCalled(t, "CreateBooking", mock.Anything)
}

func TestCreateBookingCapacityExceededReturns409(t *testing.T) {
	orch := new(MockOrchestrator)
	router := setupRouter(orch, new(MockCoordinator))

	orch.On("CreateBooking", mock.Anything).Return(nil, models.ErrCapacityExceeded)

	rec := postJSON(t, router, "/api/v1/bookings", models.BookingRequest{
		UserID: 7, EventID: "E1", Tickets: 2, IdempotencyKey: "K1",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBookingPaymentDeclinedReturns402(t *testing.T) {
	orch := new(MockOrchestrator)
	router := setupRouter(orch, new(MockCoordinator))

	orch.On("CreateBooking", mock.Anything).Return(nil, models.ErrPaymentDeclined)

	rec := postJSON(t, router, "/api/v1/bookings", models.BookingRequest{
		UserID: 7, EventID: "E1", Tickets: 2, IdempotencyKey: "K1",
	})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestCreateBookingServiceUnavailableReturns503(t *testing.T) {
	orch := new(MockOrchestrator)
	router := setupRouter(orch, new(MockCoordinator))

	orch.On("CreateBooking", mock.Anything).Return(nil, models.ErrServiceUnavailable)

	rec := postJSON(t, router, "/api/v1/bookings", models.BookingRequest{
		UserID: 7, EventID: "E1", Tickets: 2, IdempotencyKey: "K1",
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListBookingsReturns200(t *testing.T) {
	orch := new(MockOrchestrator)
	router := setupRouter(orch, new(MockCoordinator))

	orch.On("ListBookings", int64(7)).Return([]models.Booking{
		{BookingID: "b1", UserID: 7, EventID: "E1", Tickets: 2, Status: models.StatusConfirmed},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?user_id=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "b1")
}

func TestListBookingsInvalidUserIDReturns400(t *testing.T) {
	router := setupRouter(new(MockOrchestrator), new(MockCoordinator))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?user_id=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettlePaymentReturns200(t *testing.T) {
	coord := new(MockCoordinator)
	router := setupRouter(new(MockOrchestrator), coord)

	coord.On("SettlePayment", int64(7), 200.0).Return(&models.SettlementResult{TotalPaid: 200, Bookings: 1}, nil)

	rec := postJSON(t, router, "/api/v1/payments/settle", models.SettlementRequest{UserID: 7, Amount: 200})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_paid")
}

func TestSettlePaymentNothingToSettleReturns404(t *testing.T) {
	coord := new(MockCoordinator)
	router := setupRouter(new(MockOrchestrator), coord)

	coord.On("SettlePayment", int64(7), 200.0).Return(nil, models.ErrNothingToSettle)

	rec := postJSON(t, router, "/api/v1/payments/settle", models.SettlementRequest{UserID: 7, Amount: 200})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettlePaymentAmountMismatchReturns400WithExpected(t *testing.T) {
	coord := new(MockCoordinator)
	router := setupRouter(new(MockOrchestrator), coord)

	coord.On("SettlePayment", int64(7), 300.0).Return(nil, &models.AmountMismatchError{Expected: 500, Submitted: 300})

	rec := postJSON(t, router, "/api/v1/payments/settle", models.SettlementRequest{UserID: 7, Amount: 300})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "500")
}

func TestSettlePaymentFailureReturns500(t *testing.T) {
	coord := new(MockCoordinator)
	router := setupRouter(new(MockOrchestrator), coord)

	coord.On("SettlePayment", int64(7), 200.0).Return(nil, models.ErrSettlementFailed)

	rec := postJSON(t, router, "/api/v1/payments/settle", models.SettlementRequest{UserID: 7, Amount: 200})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
