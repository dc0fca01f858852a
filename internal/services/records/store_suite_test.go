package records

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/ParcelDesk/internal/broker/messages"
	"github.com/BearBump/ParcelDesk/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	recordsmocks "github.com/BearBump/ParcelDesk/internal/services/records/mocks"
)

type StoreSuite struct {
	suite.Suite

	backend   *recordsmocks.MockBackend
	publisher *recordsmocks.MockPublisher
	store     *Store
}

func (s *StoreSuite) SetupTest() {
	s.backend = &recordsmocks.MockBackend{}
	s.publisher = &recordsmocks.MockPublisher{}

	s.backend.On("Get", mock.Anything, mock.Anything).Return(nil, false, nil)
	s.backend.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	s.store = New(s.backend, s.publisher, Options{PasswordCost: bcrypt.MinCost}).
		WithClock(func() time.Time { return testNow })
	s.Require().NoError(s.store.Load(context.Background()))
}

func (s *StoreSuite) TestLoad_ReadsCanonicalThenLegacyKeys() {
	for _, key := range []string{"legacyMigrated", "users", "systemUsers", "swiftDeliveryUsers", "customers",
		"parcels", "systemParcels", "publicParcels", "swiftDeliveryParcels"} {
		s.backend.AssertCalled(s.T(), "Get", mock.Anything, key)
	}
	s.backend.AssertCalled(s.T(), "Set", mock.Anything, "users", mock.Anything)
	s.backend.AssertCalled(s.T(), "Set", mock.Anything, "parcels", mock.Anything)
	s.backend.AssertCalled(s.T(), "Set", mock.Anything, "legacyMigrated", mock.Anything)
	s.backend.AssertNotCalled(s.T(), "Set", mock.Anything, "systemUsers", mock.Anything)
}

func (s *StoreSuite) TestLoad_SkipsLegacyKeysOnceMigrated() {
	backend := &recordsmocks.MockBackend{}
	backend.On("Get", mock.Anything, "legacyMigrated").Return([]byte(`{"migratedAt":"2025-03-14T10:30:00Z"}`), true, nil).Once()
	backend.On("Get", mock.Anything, "users").Return(nil, false, nil).Once()
	backend.On("Get", mock.Anything, "parcels").Return(nil, false, nil).Once()
	backend.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	s.Require().NoError(New(backend, nil, Options{}).Load(context.Background()))
	backend.AssertNotCalled(s.T(), "Get", mock.Anything, "customers")
	backend.AssertNotCalled(s.T(), "Get", mock.Anything, "publicParcels")
	backend.AssertNotCalled(s.T(), "Set", mock.Anything, "legacyMigrated", mock.Anything)
	backend.AssertExpectations(s.T())
}

func (s *StoreSuite) TestLoad_BackendReadError() {
	backend := &recordsmocks.MockBackend{}
	backend.On("Get", mock.Anything, "legacyMigrated").Return(nil, false, nil).Once()
	backend.On("Get", mock.Anything, "users").Return(nil, false, errors.New("connection refused")).Once()

	err := New(backend, nil, Options{}).Load(context.Background())
	s.Require().True(IsKind(err, KindPersistence))
	backend.AssertNotCalled(s.T(), "Set", mock.Anything, mock.Anything, mock.Anything)
}

func (s *StoreSuite) TestCreateParcel_PublishesCreated() {
	s.publisher.On("PublishParcelChanged", mock.Anything, mock.MatchedBy(func(m messages.ParcelChanged) bool {
		return m.Kind == messages.ParcelCreated && m.Status == string(models.ParcelStatusPending) && m.TrackingNumber != ""
	})).Return(nil).Once()

	p, err := s.store.CreateParcel(context.Background(), janeParcel())
	s.Require().NoError(err)
	s.Require().NotEmpty(p.ID)
	s.publisher.AssertExpectations(s.T())
	s.backend.AssertCalled(s.T(), "Set", mock.Anything, "parcels", mock.Anything)
}

func (s *StoreSuite) TestCreateParcel_ValidationPublishesNothing() {
	_, err := s.store.CreateParcel(context.Background(), models.ParcelCreateInput{})
	s.Require().True(IsKind(err, KindValidation))
	s.publisher.AssertNotCalled(s.T(), "PublishParcelChanged", mock.Anything, mock.Anything)
}

func (s *StoreSuite) TestRejectParcel_EventCarriesReasonAndActor() {
	s.publisher.On("PublishParcelChanged", mock.Anything, mock.Anything).Return(nil).Once()
	p, err := s.store.CreateParcel(context.Background(), janeParcel())
	s.Require().NoError(err)

	s.publisher.On("PublishParcelChanged", mock.Anything, mock.MatchedBy(func(m messages.ParcelChanged) bool {
		return m.Kind == messages.ParcelUpdated &&
			m.ParcelID == p.ID &&
			m.PreviousStatus == string(models.ParcelStatusPending) &&
			m.Status == string(models.ParcelStatusRejected) &&
			m.Actor == "dispatcher-1" &&
			m.Reason != nil && *m.Reason == "damaged" &&
			m.ChangedAt.Equal(testNow)
	})).Return(nil).Once()

	_, err = s.store.RejectParcel(context.Background(), p.ID, "dispatcher-1", "damaged")
	s.Require().NoError(err)
	s.publisher.AssertExpectations(s.T())
}

func (s *StoreSuite) TestPublishFailure_DoesNotFailOperation() {
	s.publisher.On("PublishParcelChanged", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	p, err := s.store.CreateParcel(context.Background(), janeParcel())
	s.Require().NoError(err)
	s.Require().NoError(s.store.DeleteParcel(context.Background(), p.ID))
	s.publisher.AssertNumberOfCalls(s.T(), "PublishParcelChanged", 2)
}

func (s *StoreSuite) TestDeleteUser_PublishesDeletedPerParcel() {
	ctx := context.Background()
	u, err := s.store.CreateUser(ctx, models.UserCreateInput{Name: "A", Email: "a@x.io", Password: "pw"})
	s.Require().NoError(err)

	s.publisher.On("PublishParcelChanged", mock.Anything, mock.MatchedBy(func(m messages.ParcelChanged) bool {
		return m.Kind == messages.ParcelCreated
	})).Return(nil).Twice()
	for range 2 {
		in := janeParcel()
		in.CustomerID = &u.ID
		_, err := s.store.CreateParcel(ctx, in)
		s.Require().NoError(err)
	}

	s.publisher.On("PublishParcelChanged", mock.Anything, mock.MatchedBy(func(m messages.ParcelChanged) bool {
		return m.Kind == messages.ParcelDeleted && m.CustomerID != nil && *m.CustomerID == u.ID
	})).Return(nil).Twice()

	s.Require().NoError(s.store.DeleteUser(ctx, u.ID))
	s.publisher.AssertExpectations(s.T())
}

func (s *StoreSuite) TestUserMutations_DoNotPublish() {
	_, err := s.store.CreateUser(context.Background(), models.UserCreateInput{Name: "A", Email: "a@x.io", Password: "pw"})
	s.Require().NoError(err)
	s.publisher.AssertNotCalled(s.T(), "PublishParcelChanged", mock.Anything, mock.Anything)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}
