package records_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/BearBump/ParcelDesk/internal/models"
	"github.com/BearBump/ParcelDesk/internal/services/records"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// Store is the part of records.Store the HTTP layer needs.
type Store interface {
	CreateUser(ctx context.Context, in models.UserCreateInput) (models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	ToggleUserActive(ctx context.Context, id string) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	Authenticate(email, password string, role models.Role) (models.User, error)
	UserByID(id string) (models.User, error)
	QueryUsers(pred func(models.User) bool) []models.User

	CreateParcel(ctx context.Context, in models.ParcelCreateInput) (models.Parcel, error)
	UpdateParcel(ctx context.Context, id string, patch models.ParcelPatch) (models.Parcel, error)
	ApproveParcel(ctx context.Context, id, actorID string) (models.Parcel, error)
	RejectParcel(ctx context.Context, id, actorID, reason string) (models.Parcel, error)
	DeleteParcel(ctx context.Context, id string) error
	ParcelByID(id string) (models.Parcel, error)
	TrackParcel(trackingNumber string) (models.Parcel, error)
	QueryParcels(pred func(models.Parcel) bool) []models.Parcel

	GetStats() models.Stats
	TodayStats() models.TodayStats
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
	Reset(ctx context.Context, key string) error
}

type RecordsAPI struct {
	store Store

	rl              RateLimiter
	loginPerMinute  int64
	loginRateWindow time.Duration
}

func New(store Store) *RecordsAPI {
	return &RecordsAPI{store: store, loginPerMinute: 10, loginRateWindow: time.Minute}
}

// WithLoginLimit throttles login attempts per email. A nil limiter disables throttling.
func (a *RecordsAPI) WithLoginLimit(rl RateLimiter, perMinute int64) *RecordsAPI {
	a.rl = rl
	if perMinute > 0 {
		a.loginPerMinute = perMinute
	}
	return a
}

func (a *RecordsAPI) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", a.register)
		r.Post("/login", a.login)
		r.Get("/", a.listUsers)
		r.Post("/", a.createUser)
		r.Get("/{id}", a.getUser)
		r.Patch("/{id}", a.updateUser)
		r.Post("/{id}/toggle-active", a.toggleUserActive)
		r.Delete("/{id}", a.deleteUser)
	})

	r.Route("/parcels", func(r chi.Router) {
		r.Get("/", a.listParcels)
		r.Post("/", a.createParcel)
		r.Get("/track/{trackingNumber}", a.trackParcel)
		r.Get("/{id}", a.getParcel)
		r.Patch("/{id}", a.updateParcel)
		r.Post("/{id}/approve", a.approveParcel)
		r.Post("/{id}/reject", a.rejectParcel)
		r.Delete("/{id}", a.deleteParcel)
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, a.store.GetStats())
	})
	r.Get("/stats/today", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, a.store.TodayStats())
	})

	return r
}

type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("write response", "error", err.Error())
	}
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

func statusOf(kind records.Kind) int {
	switch kind {
	case records.KindValidation:
		return http.StatusBadRequest
	case records.KindInvalidCredentials:
		return http.StatusUnauthorized
	case records.KindNotFound:
		return http.StatusNotFound
	case records.KindDuplicateEmail, records.KindDuplicateTracking, records.KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeResult answers a mutation. A persistence failure still carries the applied record.
func writeResult(w http.ResponseWriter, okStatus int, data any, err error) {
	if err == nil {
		writeOK(w, okStatus, data)
		return
	}

	var e *records.Error
	if !errors.As(err, &e) {
		slog.Error("request failed", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	body := envelope{Success: false, Message: e.Error(), Fields: e.Fields}
	if e.Kind == records.KindPersistence {
		slog.Error("request not persisted", "error", err.Error())
		body.Data = data
		body.Message = e.Message
	}
	writeJSON(w, statusOf(e.Kind), body)
}

func writeErr(w http.ResponseWriter, err error) {
	writeResult(w, 0, nil, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
