package records

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/BearBump/ParcelDesk/internal/broker/messages"
	"github.com/BearBump/ParcelDesk/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

func (s *Store) CreateUser(ctx context.Context, in models.UserCreateInput) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}

	var bad []string
	if name == "" {
		bad = append(bad, "name")
	}
	if !validEmail(email) {
		bad = append(bad, "email")
	}
	if in.Password == "" {
		bad = append(bad, "password")
	}
	if !role.Valid() {
		bad = append(bad, "role")
	}
	if len(bad) > 0 {
		return models.User{}, validationError(bad...)
	}

	if _, ok := s.userByEmail(email); ok {
		return models.User{}, &Error{Kind: KindDuplicateEmail, Message: "email already exists"}
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	u := s.normalizeUser(models.User{
		ID:        s.uniqueID("user", s.userIDs()),
		Name:      name,
		Email:     email,
		Password:  hash,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		Role:      role,
		CreatedAt: s.now(),
		IsActive:  true,
	})
	s.users = append(s.users, u)

	return u, s.persist(ctx, true, false)
}

// UpdateUser merges patch into the user. Email changes are re-checked for uniqueness,
// password changes are hashed.
func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 {
		return models.User{}, notFound("user", id)
	}
	u := s.users[i]

	var bad []string
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name == "" {
			bad = append(bad, "name")
		} else {
			u.Name = name
		}
	}
	if patch.Email != nil {
		if email := normalizeEmail(*patch.Email); !validEmail(email) {
			bad = append(bad, "email")
		} else {
			u.Email = email
		}
	}
	if patch.Password != nil && *patch.Password == "" {
		bad = append(bad, "password")
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			bad = append(bad, "role")
		} else {
			u.Role = *patch.Role
		}
	}
	if len(bad) > 0 {
		return models.User{}, validationError(bad...)
	}

	if other, ok := s.userByEmail(u.Email); ok && other.ID != u.ID {
		return models.User{}, &Error{Kind: KindDuplicateEmail, Message: "email already exists"}
	}
	if patch.Password != nil {
		hash, err := s.hashPassword(*patch.Password)
		if err != nil {
			return models.User{}, err
		}
		u.Password = hash
	}
	if patch.Phone != nil {
		u.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Address != nil {
		u.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}

	u = s.normalizeUser(u)
	s.users[i] = u
	return u, s.persist(ctx, true, false)
}

// ToggleUserActive flips isActive (admin "activate/deactivate").
func (s *Store) ToggleUserActive(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 {
		return models.User{}, notFound("user", id)
	}
	s.users[i].IsActive = !s.users[i].IsActive
	return s.users[i], s.persist(ctx, true, false)
}

// DeleteUser removes the user and every parcel whose customerId is that user.
// Deleting an unknown id is NotFound.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	events, err := s.deleteUser(ctx, id)
	s.publish(ctx, events)
	return err
}

func (s *Store) deleteUser(ctx context.Context, id string) ([]messages.ParcelChanged, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 {
		return nil, notFound("user", id)
	}
	s.users = append(s.users[:i:i], s.users[i+1:]...)

	now := s.now()
	var events []messages.ParcelChanged
	kept := make([]models.Parcel, 0, len(s.parcels))
	for _, p := range s.parcels {
		if p.BelongsTo(id) {
			events = append(events, parcelEvent(messages.ParcelDeleted, p, p.Status, "", now))
			continue
		}
		kept = append(kept, p)
	}
	s.parcels = kept

	return events, s.persist(ctx, true, len(events) > 0)
}

// Authenticate checks credentials. Passwords are bcrypt hashes; records imported from
// the legacy store may still hold plaintext, which is compared in constant time.
// Every failure is InvalidCredentials.
func (s *Store) Authenticate(email, password string, role models.Role) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fail := &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}

	u, ok := s.userByEmail(normalizeEmail(email))
	if !ok || !u.IsActive {
		return models.User{}, fail
	}
	if role != "" && u.Role != role {
		return models.User{}, fail
	}
	if !passwordMatches(u.Password, password) {
		return models.User{}, fail
	}
	return u, nil
}

func (s *Store) UserByID(id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 {
		return models.User{}, notFound("user", id)
	}
	return s.users[i], nil
}

// QueryUsers returns the users matching pred in insertion order. nil pred matches all.
func (s *Store) QueryUsers(pred func(models.User) bool) []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if pred == nil || pred(u) {
			out = append(out, u)
		}
	}
	return out
}

func (s *Store) UsersByRole(role models.Role) []models.User {
	return s.QueryUsers(func(u models.User) bool { return u.Role == role })
}

func (s *Store) userIndex(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) userByEmail(email string) (models.User, bool) {
	email = normalizeEmail(email)
	if email == "" {
		return models.User{}, false
	}
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) userIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.users))
	for _, u := range s.users {
		ids[u.ID] = struct{}{}
	}
	return ids
}

func (s *Store) hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.PasswordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", &Error{Kind: KindValidation, Message: "password is too long", Fields: []string{"password"}}
	}
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(b), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}
