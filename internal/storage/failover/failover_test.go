package failover

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	recordsmocks "github.com/BearBump/ParcelDesk/internal/services/records/mocks"
)

func TestStore_PrefersRemote(t *testing.T) {
	remote := recordsmocks.NewMockBackend(t)
	local := recordsmocks.NewMockBackend(t)

	remote.On("Get", mock.Anything, "users").Return([]byte(`[]`), true, nil).Once()
	remote.On("Set", mock.Anything, "users", []byte(`[1]`)).Return(nil).Once()

	s := New(remote, local)
	b, ok, err := s.Get(context.Background(), "users")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`[]`), b)
	require.NoError(t, s.Set(context.Background(), "users", []byte(`[1]`)))

	local.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	local.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	require.Zero(t, s.Fallbacks())
}

func TestStore_FallsBackToLocal(t *testing.T) {
	remote := recordsmocks.NewMockBackend(t)
	local := recordsmocks.NewMockBackend(t)
	down := errors.New("dial tcp: connection refused")

	remote.On("Get", mock.Anything, "parcels").Return(nil, false, down).Once()
	remote.On("Set", mock.Anything, "parcels", []byte(`[2]`)).Return(down).Once()
	local.On("Get", mock.Anything, "parcels").Return([]byte(`[1]`), true, nil).Once()
	local.On("Set", mock.Anything, "parcels", []byte(`[2]`)).Return(nil).Once()

	s := New(remote, local)
	b, ok, err := s.Get(context.Background(), "parcels")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`[1]`), b)
	require.NoError(t, s.Set(context.Background(), "parcels", []byte(`[2]`)))
	require.Equal(t, int64(2), s.Fallbacks())
}

func TestStore_BothFail(t *testing.T) {
	remote := recordsmocks.NewMockBackend(t)
	local := recordsmocks.NewMockBackend(t)

	remote.On("Set", mock.Anything, "users", mock.Anything).Return(errors.New("remote down")).Once()
	local.On("Set", mock.Anything, "users", mock.Anything).Return(errors.New("disk full")).Once()

	err := New(remote, local).Set(context.Background(), "users", []byte(`[]`))
	require.ErrorContains(t, err, "disk full")
}
