package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/ParcelDesk/internal/services/notifier"
)

func TestClient_Deliver_OK(t *testing.T) {
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/notifications", r.URL.Path)
		require.Equal(t, "k", r.Header.Get("X-Api-Key"))

		var body reqBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "PC1", body.TrackingNumber)
		require.Equal(t, "user-1", body.Recipient)
		require.True(t, at.Equal(body.At))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	err := c.Deliver(context.Background(), notifier.Notification{
		ParcelID:       "parcel-1",
		TrackingNumber: "PC1",
		Recipient:      "user-1",
		Title:          "Parcel delivered",
		Text:           "Parcel PC1 was delivered.",
		At:             at,
	})
	require.NoError(t, err)
}

func TestClient_Deliver_Errors(t *testing.T) {
	code := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.Deliver(context.Background(), notifier.Notification{TrackingNumber: "PC1"})
	require.ErrorContains(t, err, "429")

	code = http.StatusBadGateway
	err = c.Deliver(context.Background(), notifier.Notification{TrackingNumber: "PC1"})
	require.ErrorContains(t, err, "http 502")
}

func TestClient_Deliver_RetriedByNotifier(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := notifier.New(New(srv.URL, ""), nil).WithBackoff(notifier.BackoffConfig{
		Attempts: 2,
		Delay1:   time.Millisecond,
	}, nil)

	payload := []byte(`{"parcel_id":"p1","tracking_number":"PC1","kind":"created","status":"pending"}`)
	require.NoError(t, n.Handle(context.Background(), nil, payload))
	require.Equal(t, 2, calls)
	require.Equal(t, int64(1), n.Stats().TotalNotified)
}
