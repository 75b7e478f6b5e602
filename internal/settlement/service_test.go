package settlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-booking/internal/models"
	"ms-booking/internal/settlement"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetBookingsByUser(ctx context.Context, userID int64, statuses ...models.BookingStatus) ([]models.Booking, error) {
	args := m.Called(userID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockLedger) SettleBookings(ctx context.Context, bookings []models.Booking, unitPrice float64) error {
	args := m.Called(bookings, unitPrice)
	return args.Error(0)
}

type MockLock struct {
	mock.Mock
}

func (m *MockLock) Acquire(ctx context.Context, userID int64) (string, bool, error) {
	args := m.Called(userID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLock) Release(ctx context.Context, userID int64, token string) error {
	args := m.Called(userID, token)
	return args.Error(0)
}

func outstandingBookings() []models.Booking {
	return []models.Booking{
		{BookingID: "b1", UserID: 7, EventID: "E1", Tickets: 2, Status: models.StatusConfirmed},
		{BookingID: "b2", UserID: 7, EventID: "E2", Tickets: 3, Status: models.StatusPending},
	}
}

func TestSettlePaymentSuccess(t *testing.T) {
	mockDB := new(MockLedger)
	mockLock := new(MockLock)
	svc := settlement.NewSettlementService(mockDB, mockLock, 100, nil)

	mockLock.On("Acquire", int64(7)).Return("token", true, nil)
	mockLock.On("Release", int64(7), "token").Return(nil)
	mockDB.On("GetBookingsByUser", int64(7), []models.BookingStatus{models.StatusConfirmed, models.StatusPending}).
		Return(outstandingBookings(), nil)
	mockDB.On("SettleBookings", mock.Anything, 100.0).Return(nil)

	result, err := svc.SettlePayment(context.Background(), 7, 500)

	assert.NoError(t, err)
	assert.Equal(t, 500.0, result.TotalPaid)
	assert.Equal(t, 2, result.Bookings)
	mockDB.AssertExpectations(t)
	mockLock.AssertExpectations(t)
}

func TestSettlePaymentNothingToSettle(t *testing.T) {
	mockDB := new(MockLedger)
	mockLock := new(MockLock)
	svc := settlement.NewSettlementService(mockDB, mockLock, 100, nil)

	mockLock.On("Acquire", int64(7)).Return("token", true, nil)
	mockLock.On("Release", int64(7), "token").Return(nil)
	mockDB.On("GetBookingsByUser", int64(7), mock.Anything).Return([]models.Booking{}, nil)

	_, err := svc.SettlePayment(context.Background(), 7, 100)

	assert.ErrorIs(t, err, models.ErrNothingToSettle)
	mockDB.AssertNotCalled(t, "SettleBookings", mock.Anything, mock.Anything)
}

func TestSettlePaymentAmountMismatch(t *testing.T) {
	mockDB := new(MockLedger)
	mockLock := new(MockLock)
	svc := settlement.NewSettlementService(mockDB, mockLock, 100, nil)

	mockLock.On("Acquire", int64(7)).Return("token", true, nil)
	mockLock.On("Release", int64(7), "token").Return(nil)
	mockDB.On("GetBookingsByUser", int64(7), mock.Anything).Return(outstandingBookings(), nil)

	_, err := svc.SettlePayment(context.Background(), 7, 300)

	var mismatch *models.AmountMismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 500.0, mismatch.Expected)
	assert.Equal(t, 300.0, mismatch.Submitted)
	mockDB.AssertNotCalled(t, "SettleBookings", mock.Anything, mock.Anything)
}

func TestSettlePaymentLockBusy(t *testing.T) {
	mockDB := new(MockLedger)
	mockLock := new(MockLock)
	svc := settlement.NewSettlementService(mockDB, mockLock, 100, nil)

	mockLock.On("Acquire", int64(7)).Return("", false, nil)

	_, err := svc.SettlePayment(context.Background(), 7, 500)

	assert.ErrorIs(t, err, models.ErrSettlementFailed)
	mockDB.AssertNotCalled(t, "GetBookingsByUser", mock.Anything, mock.Anything)
}

func TestSettlePaymentLedgerFailure(t *testing.T) {
	mockDB := new(MockLedger)
	mockLock := new(MockLock)
	svc := settlement.NewSettlementService(mockDB, mockLock, 100, nil)

	mockLock.On("Acquire", int64(7)).Return("token", true, nil)
	mockLock.On("Release", int64(7), "token").Return(nil)
	mockDB.On("GetBookingsByUser", int64(7), mock.Anything).Return(outstandingBookings(), nil)
	mockDB.On("SettleBookings", mock.Anything, 100.0).Return(models.ErrSettlementFailed)

	_, err := svc.SettlePayment(context.Background(), 7, 500)

	assert.ErrorIs(t, err, models.ErrSettlementFailed)
	mockLock.AssertCalled(t, "Release", int64(7), "token")
}
