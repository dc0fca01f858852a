package notifier_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/BearBump/ParcelDesk/internal/services/notifier"
	notifiermocks "github.com/BearBump/ParcelDesk/internal/services/notifier/mocks"
)

type BackoffSuite struct {
	suite.Suite
}

func (s *BackoffSuite) TestDelay_Schedule() {
	m := &notifiermocks.Rand{}
	m.On("Intn", 51).Return(0)

	b := notifier.NewBackoff(notifier.BackoffConfig{}, m)
	s.Equal(4, b.Attempts())
	s.Equal(100*time.Millisecond, b.Delay(1))
	s.Equal(300*time.Millisecond, b.Delay(2))
	s.Equal(time.Second, b.Delay(3))
	s.Equal(time.Second, b.Delay(10))
	m.AssertExpectations(s.T())
}

func (s *BackoffSuite) TestDelay_AddsJitter() {
	m := &notifiermocks.Rand{}
	m.On("Intn", mock.Anything).Return(7).Once()

	b := notifier.NewBackoff(notifier.BackoffConfig{Delay1: time.Second, Jitter: 10 * time.Millisecond}, m)
	s.Equal(time.Second+7*time.Millisecond, b.Delay(1))
	m.AssertExpectations(s.T())
}

func (s *BackoffSuite) TestDelay_NoJitterNoRand() {
	m := &notifiermocks.Rand{}
	b := notifier.NewBackoff(notifier.BackoffConfig{Jitter: -1}, m)
	s.Equal(100*time.Millisecond, b.Delay(0))
	m.AssertNotCalled(s.T(), "Intn", mock.Anything)
}

func TestBackoffSuite(t *testing.T) {
	suite.Run(t, new(BackoffSuite))
}
