package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-booking/internal/models"
	"ms-booking/internal/payment"
)

func TestAuthorizeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(7), body["user_id"])
		assert.Equal(t, 100.0, body["amount"])

		json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESS"})
	}))
	defer server.Close()

	authorizer := payment.NewHTTPAuthorizer(server.URL, time.Second)
	err := authorizer.Authorize(context.Background(), 7, 100)
	assert.NoError(t, err)
}

func TestAuthorizeDeclinedOn4xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	authorizer := payment.NewHTTPAuthorizer(server.URL, time.Second)
	err := authorizer.Authorize(context.Background(), 7, 100)
	assert.ErrorIs(t, err, models.ErrPaymentDeclined)
}

func TestAuthorizeDeclinedOnNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "FAILED"})
	}))
	defer server.Close()

	authorizer := payment.NewHTTPAuthorizer(server.URL, time.Second)
	err := authorizer.Authorize(context.Background(), 7, 100)
	assert.ErrorIs(t, err, models.ErrPaymentDeclined)
}

func TestAuthorizeTransientOn5xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	authorizer := payment.NewHTTPAuthorizer(server.URL, time.Second)
	err := authorizer.Authorize(context.Background(), 7, 100)
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestAuthorizeTransientOnConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	authorizer := payment.NewHTTPAuthorizer(server.URL, time.Second)
	err := authorizer.Authorize(context.Background(), 7, 100)
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}
