package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"realty/internal/logs"
	"realty/internal/models"
	"realty/internal/repo"
)

// Identity — проверенный пользователь запроса.
type Identity struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// Policy — допустимые имена ролей. Пустая политика — любой аутентифицированный пользователь.
type Policy []string

var (
	SuperAdminOnly    = Policy{models.RoleSuperAdmin}
	AdminOnly         = Policy{models.RoleAdmin}
	SuperAdminOrAdmin = Policy{models.RoleSuperAdmin, models.RoleAdmin}
	EndUserOnly       = Policy{models.RoleEndUser}
	AnyUser           = Policy{}
)

// Gate — проверка токена и роли. Роль пользователя читается заново на каждый запрос.
type Gate struct {
	db       *gorm.DB
	verifier Verifier
	cache    *RoleCache // nil — без кэша
}

func NewGate(db *gorm.DB, v Verifier, cache *RoleCache) *Gate {
	return &Gate{db: db, verifier: v, cache: cache}
}

// Cache — кэш ролей гейта (может быть nil).
func (g *Gate) Cache() *RoleCache { return g.cache }

// Resolve проверяет токен и находит пользователя по subject (email).
func (g *Gate) Resolve(ctx context.Context, token string) (Identity, error) {
	email, err := g.verifier.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	u, err := repo.FindOne(ctx, g.db, repo.Users, map[string]any{"email": email})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return Identity{}, fmt.Errorf("%w: unknown subject", ErrUnauthenticated)
	case err != nil:
		return Identity{}, err
	}
	return Identity{ID: u.ID, Email: u.Email}, nil
}

// Authorize пропускает пользователя, если его текущая роль входит в allowed.
// Разрешённая роль, которой нет в таблице ролей, — внутренняя ошибка (отказ).
func (g *Gate) Authorize(ctx context.Context, id Identity, allowed ...string) (Identity, error) {
	if len(allowed) == 0 {
		return id, nil
	}
	u, err := repo.FindOne(ctx, g.db, repo.Users, map[string]any{"id": id.ID})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return Identity{}, fmt.Errorf("%w: user %d no longer exists", ErrUnauthenticated, id.ID)
	case err != nil:
		return Identity{}, err
	}

	ids := make([]uint, 0, len(allowed))
	for _, name := range allowed {
		rid, err := g.roleID(ctx, name)
		if err != nil {
			return Identity{}, err
		}
		ids = append(ids, rid)
	}
	if !slices.Contains(ids, u.RoleID) {
		logs.Logger.WithContext(ctx).WithFields(logrus.Fields{
			"actor":   id.ID,
			"role_id": u.RoleID,
			"allowed": allowed,
		}).Warn("forbidden")
		return Identity{}, fmt.Errorf("%w: requires one of %v", ErrForbidden, allowed)
	}
	return id, nil
}

// Check — Resolve, затем Authorize по политике.
func (g *Gate) Check(ctx context.Context, token string, p Policy) (Identity, error) {
	id, err := g.Resolve(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	return g.Authorize(ctx, id, p...)
}

func (g *Gate) SuperAdminOnly(ctx context.Context, token string) (Identity, error) {
	return g.Check(ctx, token, SuperAdminOnly)
}

func (g *Gate) AdminOnly(ctx context.Context, token string) (Identity, error) {
	return g.Check(ctx, token, AdminOnly)
}

func (g *Gate) SuperAdminOrAdmin(ctx context.Context, token string) (Identity, error) {
	return g.Check(ctx, token, SuperAdminOrAdmin)
}

func (g *Gate) EndUserOnly(ctx context.Context, token string) (Identity, error) {
	return g.Check(ctx, token, EndUserOnly)
}

func (g *Gate) AnyUser(ctx context.Context, token string) (Identity, error) {
	return g.Check(ctx, token, AnyUser)
}

func (g *Gate) roleID(ctx context.Context, name string) (uint, error) {
	if g.cache != nil {
		if id, ok := g.cache.get(name); ok {
			return id, nil
		}
	}
	r, err := repo.FindOne(ctx, g.db, repo.Roles, map[string]any{"name": name})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		logs.Logger.WithContext(ctx).WithField("role", name).Error("required role missing")
		return 0, fmt.Errorf("%w: role %q is not configured", repo.ErrInternal, name)
	case err != nil:
		return 0, err
	}
	if g.cache != nil {
		g.cache.put(name, r.ID)
	}
	return r.ID, nil
}
