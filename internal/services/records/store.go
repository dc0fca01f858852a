package records

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/ParcelDesk/internal/broker/messages"
	"github.com/BearBump/ParcelDesk/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Backend is the persisted key-value storage. Each collection is one JSON blob under one key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Publisher receives parcel change notifications. Failures are logged, never returned.
type Publisher interface {
	PublishParcelChanged(ctx context.Context, msg messages.ParcelChanged) error
}

const (
	DefaultUsersKey    = "users"
	DefaultParcelsKey  = "parcels"
	DefaultMigratedKey = "legacyMigrated"
)

var (
	DefaultLegacyUserKeys   = []string{"systemUsers", "swiftDeliveryUsers", "customers"}
	DefaultLegacyParcelKeys = []string{"systemParcels", "publicParcels", "swiftDeliveryParcels"}
)

type Options struct {
	UsersKey   string
	ParcelsKey string

	// Legacy keys are only read, in order, after the canonical key. nil means defaults.
	LegacyUserKeys   []string
	LegacyParcelKeys []string

	// MigratedKey marks that the legacy keys were folded into the canonical ones.
	// Once it is set Load reads the canonical keys only.
	MigratedKey string

	SeedDemo bool

	// PasswordCost is the bcrypt cost; 0 means bcrypt.DefaultCost.
	PasswordCost int
}

func (o Options) withDefaults() Options {
	if o.UsersKey == "" {
		o.UsersKey = DefaultUsersKey
	}
	if o.ParcelsKey == "" {
		o.ParcelsKey = DefaultParcelsKey
	}
	if o.MigratedKey == "" {
		o.MigratedKey = DefaultMigratedKey
	}
	if o.LegacyUserKeys == nil {
		o.LegacyUserKeys = DefaultLegacyUserKeys
	}
	if o.LegacyParcelKeys == nil {
		o.LegacyParcelKeys = DefaultLegacyParcelKeys
	}
	if o.PasswordCost == 0 {
		o.PasswordCost = bcrypt.DefaultCost
	}
	return o
}

// Store owns the Users and Parcels collections. Every mutation goes through it,
// is applied in memory first and then written to the backend as a whole collection.
//
// Operations are serialized by one mutex; with a shared remote backend the last write wins.
type Store struct {
	mu sync.Mutex

	backend   Backend
	publisher Publisher
	opts      Options

	now    func() time.Time
	newID  func(prefix string) string
	suffix func() string

	users   []models.User
	parcels []models.Parcel
}

func New(backend Backend, publisher Publisher, opts Options) *Store {
	return &Store{
		backend:   backend,
		publisher: publisher,
		opts:      opts.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newID,
		suffix:    randomSuffix,
	}
}

// WithClock replaces the time source (tests).
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// WithTrackingSuffix replaces the random tracking-number suffix source (tests).
func (s *Store) WithTrackingSuffix(suffix func() string) *Store {
	if suffix != nil {
		s.suffix = suffix
	}
	return s
}

// Load ingests the canonical keys, merges them first-seen-wins with the legacy keys,
// normalizes the result, optionally seeds demo data and writes the canonical keys back.
//
// Legacy keys are never written. They are read until the first successful write-back,
// which sets MigratedKey; after that a record deleted or edited in the canonical
// collection cannot come back from a legacy copy.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	migrated, err := s.legacyMigrated(ctx)
	if err != nil {
		return err
	}
	userKeys := []string{s.opts.UsersKey}
	parcelKeys := []string{s.opts.ParcelsKey}
	if !migrated {
		userKeys = append(userKeys, s.opts.LegacyUserKeys...)
		parcelKeys = append(parcelKeys, s.opts.LegacyParcelKeys...)
	}

	userSources := make([][]legacyUser, 0, len(userKeys))
	for _, key := range userKeys {
		recs, err := readSource[legacyUser](ctx, s.backend, key)
		if err != nil {
			return err
		}
		userSources = append(userSources, recs)
	}
	parcelSources := make([][]legacyParcel, 0, len(parcelKeys))
	for _, key := range parcelKeys {
		recs, err := readSource[legacyParcel](ctx, s.backend, key)
		if err != nil {
			return err
		}
		parcelSources = append(parcelSources, recs)
	}

	users := mergeUsers(userSources...)
	parcels := mergeParcels(parcelSources...)

	s.users = s.ingestUsers(users)
	ingested, err := s.ingestParcels(parcels)
	if err != nil {
		return err
	}
	s.parcels = ingested

	if s.opts.SeedDemo {
		s.seedDemo()
	}

	slog.Info("records loaded", "users", len(s.users), "parcels", len(s.parcels), "legacy_migrated", migrated)

	if err := s.persist(ctx, true, true); err != nil {
		return err
	}
	if !migrated {
		return s.writeBlob(ctx, s.opts.MigratedKey, migrationMarker{MigratedAt: s.now()})
	}
	return nil
}

type migrationMarker struct {
	MigratedAt time.Time `json:"migratedAt"`
}

func (s *Store) legacyMigrated(ctx context.Context) (bool, error) {
	raw, ok, err := s.backend.Get(ctx, s.opts.MigratedKey)
	if err != nil {
		return false, persistenceError(errors.Wrapf(err, "read %s", s.opts.MigratedKey))
	}
	return ok && len(raw) > 0, nil
}

// readSource decodes one key as a JSON array. A missing key is an empty source;
// a corrupt blob is logged and skipped.
func readSource[T any](ctx context.Context, b Backend, key string) ([]T, error) {
	raw, ok, err := b.Get(ctx, key)
	if err != nil {
		return nil, persistenceError(errors.Wrapf(err, "read %s", key))
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.Warn("skip unreadable source", "key", key, "error", err.Error())
		return nil, nil
	}
	return out, nil
}

// persist writes the selected collections. Memory is already updated when this runs.
func (s *Store) persist(ctx context.Context, users, parcels bool) error {
	if users {
		if err := s.writeBlob(ctx, s.opts.UsersKey, s.users); err != nil {
			return err
		}
	}
	if parcels {
		if err := s.writeBlob(ctx, s.opts.ParcelsKey, s.parcels); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeBlob(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return persistenceError(errors.Wrapf(err, "marshal %s", key))
	}
	if err := s.backend.Set(ctx, key, b); err != nil {
		slog.Error("persist collection", "key", key, "error", err.Error())
		return persistenceError(errors.Wrapf(err, "write %s", key))
	}
	return nil
}

// publish is called without the lock held.
func (s *Store) publish(ctx context.Context, events []messages.ParcelChanged) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := s.publisher.PublishParcelChanged(ctx, ev); err != nil {
			slog.Warn("publish parcel change", "parcel_id", ev.ParcelID, "kind", ev.Kind, "error", err.Error())
		}
	}
}

func parcelEvent(kind string, p models.Parcel, prev models.ParcelStatus, actor string, at time.Time) messages.ParcelChanged {
	ev := messages.ParcelChanged{
		ParcelID:       p.ID,
		TrackingNumber: p.TrackingNumber,
		CustomerID:     p.CustomerID,
		Kind:           kind,
		Status:         string(p.Status),
		PreviousStatus: string(prev),
		Actor:          actor,
		ChangedAt:      at,
	}
	if p.Status == models.ParcelStatusRejected {
		ev.Reason = p.RejectionReason
	}
	return ev
}
