package notifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/ParcelDesk/internal/broker/messages"
	"github.com/BearBump/ParcelDesk/internal/services/notifier"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	notifiermocks "github.com/BearBump/ParcelDesk/internal/services/notifier/mocks"
)

type fakeRL struct {
	allowed bool
	count   int64
	err     error
	keys    []string
}

func (r *fakeRL) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	r.keys = append(r.keys, key)
	return r.allowed, r.count, r.err
}

func fastBackoff() notifier.BackoffConfig {
	return notifier.BackoffConfig{Attempts: 3, Delay1: time.Millisecond, Delay2: time.Millisecond, Delay3: time.Millisecond, Jitter: -1}
}

func encode(t *testing.T, msg messages.ParcelChanged) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestNotifier_Handle_Delivers(t *testing.T) {
	sink := &notifiermocks.MockSink{}
	sink.On("Deliver", mock.Anything, mock.MatchedBy(func(n notifier.Notification) bool {
		return n.Title == "Parcel approved" && n.Recipient == "customer-1"
	})).Return(nil).Once()

	rl := &fakeRL{allowed: true}
	n := notifier.New(sink, rl)

	customer := "customer-1"
	msg := messages.ParcelChanged{Kind: messages.ParcelUpdated, TrackingNumber: "PC1", CustomerID: &customer, Status: "approved", PreviousStatus: "pending"}
	require.NoError(t, n.Handle(context.Background(), []byte("PC1"), encode(t, msg)))

	st := n.Stats()
	require.Equal(t, int64(1), st.TotalConsumed)
	require.Equal(t, int64(1), st.TotalNotified)
	require.NotNil(t, st.LastMessageAt)
	require.Len(t, rl.keys, 1)
	require.Contains(t, rl.keys[0], "rl:notify:customer-1:")
	sink.AssertExpectations(t)
}

func TestNotifier_Handle_SkipsFieldEdits(t *testing.T) {
	sink := &notifiermocks.MockSink{}
	n := notifier.New(sink, nil)

	msg := messages.ParcelChanged{Kind: messages.ParcelUpdated, TrackingNumber: "PC1", Status: "pending", PreviousStatus: "pending"}
	require.NoError(t, n.Handle(context.Background(), nil, encode(t, msg)))
	require.Equal(t, int64(1), n.Stats().TotalSkipped)
	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestNotifier_Handle_RateLimited(t *testing.T) {
	sink := &notifiermocks.MockSink{}
	n := notifier.New(sink, &fakeRL{allowed: false, count: 31})

	msg := messages.ParcelChanged{Kind: messages.ParcelCreated, TrackingNumber: "PC1"}
	require.NoError(t, n.Handle(context.Background(), nil, encode(t, msg)))
	require.Equal(t, int64(1), n.Stats().TotalSkipped)
	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestNotifier_Handle_RateLimiterDownStillDelivers(t *testing.T) {
	sink := &notifiermocks.MockSink{}
	sink.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()
	n := notifier.New(sink, &fakeRL{err: errors.New("redis down")})

	msg := messages.ParcelChanged{Kind: messages.ParcelCreated, TrackingNumber: "PC1"}
	require.NoError(t, n.Handle(context.Background(), nil, encode(t, msg)))
	require.Equal(t, int64(1), n.Stats().TotalNotified)
	sink.AssertExpectations(t)
}

func TestNotifier_Handle_BadPayloadIsDropped(t *testing.T) {
	n := notifier.New(&notifiermocks.MockSink{}, nil)

	require.NoError(t, n.Handle(context.Background(), []byte("k"), []byte("{nope")))
	st := n.Stats()
	require.Equal(t, int64(1), st.TotalErrors)
	require.Contains(t, st.LastError, "decode parcel changed")
}

func TestNotifier_Handle_RetriesThenFails(t *testing.T) {
	sink := &notifiermocks.MockSink{}
	sink.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("smtp timeout")).Times(3)

	n := notifier.New(sink, nil).WithBackoff(fastBackoff(), nil)

	msg := messages.ParcelChanged{Kind: messages.ParcelDeleted, TrackingNumber: "PC9"}
	err := n.Handle(context.Background(), nil, encode(t, msg))
	require.Error(t, err)
	require.Contains(t, err.Error(), "PC9")
	require.Equal(t, int64(1), n.Stats().TotalErrors)
	require.Zero(t, n.Stats().TotalNotified)
	sink.AssertExpectations(t)
}

func TestNotifier_Handle_RetrySucceeds(t *testing.T) {
	sink := &notifiermocks.MockSink{}
	sink.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("flaky")).Once()
	sink.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()

	n := notifier.New(sink, nil).WithBackoff(fastBackoff(), nil)

	msg := messages.ParcelChanged{Kind: messages.ParcelCreated, TrackingNumber: "PC1"}
	require.NoError(t, n.Handle(context.Background(), nil, encode(t, msg)))
	require.Equal(t, int64(1), n.Stats().TotalNotified)
	sink.AssertExpectations(t)
}
