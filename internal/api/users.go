package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"realty/internal/audit"
	"realty/internal/auth"
	"realty/internal/logs"
	"realty/internal/models"
	"realty/internal/repo"
)

type credentials struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	RoleID   *uint   `json:"role_id,omitempty"`
}

func (c credentials) validate() error {
	if err := requireString("email", c.Email); err != nil {
		return err
	}
	if !strings.Contains(*c.Email, "@") {
		return badRequest("email is not valid")
	}
	return requireString("password", c.Password)
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type userView struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Register — саморегистрация с ролью endUser. Актор в журнале — системный.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	role, err := h.roles.FindOne(r.Context(), map[string]any{"name": models.RoleEndUser})
	if errors.Is(err, repo.ErrNotFound) {
		err = fmt.Errorf("%w: role %q is not configured", repo.ErrInternal, models.RoleEndUser)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.register(w, r, req, role.ID)
}

// RegisterWithRole — регистрация с явным role_id. Неизвестная роль — 400 со списком ролей.
func (h *Handler) RegisterWithRole(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RoleID == nil {
		writeError(w, r, badRequest("role_id is required"))
		return
	}
	role, err := h.roles.Get(r.Context(), *req.RoleID)
	if errors.Is(err, repo.ErrNotFound) {
		all, lerr := h.roles.FetchAll(r.Context())
		if lerr != nil {
			writeError(w, r, lerr)
			return
		}
		names := make([]string, 0, len(all))
		for _, ro := range all {
			names = append(names, ro.Name)
		}
		models.WriteProblem(w, http.StatusBadRequest, "role_not_found", "Role Not Found",
			map[string]any{"roles": names})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.register(w, r, req, role.ID)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, req credentials, roleID uint) {
	hash, err := h.d.Hasher.Hash(*req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.users.Create(r.Context(), audit.SystemActor, map[string]any{
		"email":    strings.ToLower(strings.TrimSpace(*req.Email)),
		"password": hash,
		"role_id":  roleID,
	})
	if errors.Is(err, repo.ErrConstraintViolation) {
		err = fmt.Errorf("%w: user with this email already exists", err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	logs.Logger.WithField("user_id", u.ID).Info("user registered")
	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"detail": "User created",
		"id":     u.ID,
	})
}

// Token — вход по email/паролю, в ответ bearer-токен.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == nil || req.Password == nil {
		writeError(w, r, badRequest("email and password are required"))
		return
	}
	email := strings.ToLower(strings.TrimSpace(*req.Email))
	u, err := h.users.FindOne(r.Context(), map[string]any{"email": email})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, r, fmt.Errorf("%w: incorrect email or password", auth.ErrUnauthenticated))
		return
	case err != nil:
		writeError(w, r, err)
		return
	}
	if !h.d.Hasher.Verify(u.Password, *req.Password) {
		writeError(w, r, fmt.Errorf("%w: incorrect email or password", auth.ErrUnauthenticated))
		return
	}
	tok, exp, err := h.d.Tokens.Issue(u.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer", ExpiresAt: exp})
}

// ListUsers — только superAdmin: id, email и имя роли.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.guard(w, r, auth.SuperAdminOnly); !ok {
		return
	}
	users, err := h.users.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	roles, err := h.roles.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	names := make(map[uint]string, len(roles))
	for _, ro := range roles {
		names[ro.ID] = ro.Name
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{ID: u.ID, Email: u.Email, Role: names[u.RoleID]})
	}
	models.WriteJSON(w, http.StatusOK, out)
}
