package records_api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/ParcelDesk/internal/models"
	"github.com/go-chi/chi/v5"
)

// userDTO is a user as the API shows it: never with the password.
type userDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Address   string      `json:"address"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	IsActive  bool        `json:"isActive"`
}

func toUserDTO(u models.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		IsActive:  u.IsActive,
	}
}

func toUserDTOs(us []models.User) []userDTO {
	out := make([]userDTO, 0, len(us))
	for _, u := range us {
		out = append(out, toUserDTO(u))
	}
	return out
}

// userResult hides a zero user (failed validation etc.) behind null data.
func userResult(u models.User) any {
	if u.ID == "" {
		return nil
	}
	return toUserDTO(u)
}

type createUserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Phone    string      `json:"phone"`
	Address  string      `json:"address"`
	Role     models.Role `json:"role"`
}

func (req createUserRequest) input() models.UserCreateInput {
	return models.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
		Role:     req.Role,
	}
}

type updateUserRequest struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Phone    *string      `json:"phone"`
	Address  *string      `json:"address"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

type loginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// register is the customer self sign-up: the role is always customer.
func (a *RecordsAPI) register(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in := req.input()
	in.Role = models.RoleCustomer

	u, err := a.store.CreateUser(r.Context(), in)
	writeResult(w, http.StatusCreated, userResult(u), err)
}

func (a *RecordsAPI) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	key := "rl:login:" + strings.ToLower(strings.TrimSpace(req.Email))
	if a.rl != nil {
		allowed, n, err := a.rl.Allow(r.Context(), key, a.loginPerMinute, a.loginRateWindow)
		switch {
		case err != nil:
			slog.Warn("login rate limiter", "error", err.Error())
		case !allowed:
			slog.Warn("login rate limit exceeded", "email", req.Email, "count", n)
			writeMessage(w, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
	}

	u, err := a.store.Authenticate(req.Email, req.Password, req.Role)
	if err != nil {
		writeErr(w, err)
		return
	}
	if a.rl != nil {
		if err := a.rl.Reset(r.Context(), key); err != nil {
			slog.Warn("login rate limiter reset", "error", err.Error())
		}
	}
	writeOK(w, http.StatusOK, toUserDTO(u))
}

func (a *RecordsAPI) listUsers(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		writeMessage(w, http.StatusBadRequest, "unknown role: "+string(role))
		return
	}
	us := a.store.QueryUsers(func(u models.User) bool {
		return role == "" || u.Role == role
	})
	writeOK(w, http.StatusOK, toUserDTOs(us))
}

func (a *RecordsAPI) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := a.store.CreateUser(r.Context(), req.input())
	writeResult(w, http.StatusCreated, userResult(u), err)
}

func (a *RecordsAPI) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.store.UserByID(chi.URLParam(r, "id"))
	writeResult(w, http.StatusOK, userResult(u), err)
}

func (a *RecordsAPI) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := a.store.UpdateUser(r.Context(), chi.URLParam(r, "id"), models.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	writeResult(w, http.StatusOK, userResult(u), err)
}

func (a *RecordsAPI) toggleUserActive(w http.ResponseWriter, r *http.Request) {
	u, err := a.store.ToggleUserActive(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, http.StatusOK, userResult(u), err)
}

func (a *RecordsAPI) deleteUser(w http.ResponseWriter, r *http.Request) {
	err := a.store.DeleteUser(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, http.StatusOK, nil, err)
}
