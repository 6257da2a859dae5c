package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"realty/internal/audit"
	"realty/internal/logs"
	"realty/internal/models"
	"realty/internal/repo"
)

// WellKnownRoles — роли, без которых авторизация не работает.
var WellKnownRoles = []string{models.RoleEndUser, models.RoleAdmin, models.RoleSuperAdmin}

// RoleCache — кэш name → id. Сбрасывается при любой мутации ролей.
type RoleCache struct {
	mu  sync.RWMutex
	ids map[string]uint
}

func NewRoleCache() *RoleCache { return &RoleCache{ids: map[string]uint{}} }

func (c *RoleCache) get(name string) (uint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[name]
	return id, ok
}

func (c *RoleCache) put(name string, id uint) {
	c.mu.Lock()
	c.ids[name] = id
	c.mu.Unlock()
}

// Invalidate очищает кэш. nil-кэш допустим.
func (c *RoleCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.ids = map[string]uint{}
	c.mu.Unlock()
}

// MissingRoles возвращает well-known роли, которых нет в таблице.
func MissingRoles(ctx context.Context, db *gorm.DB) ([]string, error) {
	var missing []string
	for _, name := range WellKnownRoles {
		_, err := repo.FindOne(ctx, db, repo.Roles, map[string]any{"name": name})
		switch {
		case errors.Is(err, repo.ErrNotFound):
			missing = append(missing, name)
		case err != nil:
			return nil, err
		}
	}
	return missing, nil
}

// CheckRoles — стартовая проверка: отсутствие любой well-known роли фатально.
func CheckRoles(ctx context.Context, db *gorm.DB) error {
	missing, err := MissingRoles(ctx, db)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("required roles missing: %v", missing)
	}
	return nil
}

// SeedRoles создаёт недостающие well-known роли от имени системного актора (с аудитом).
func SeedRoles(ctx context.Context, roles *repo.Store[models.Role]) error {
	for _, name := range WellKnownRoles {
		_, err := roles.FindOne(ctx, map[string]any{"name": name})
		if err == nil {
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if _, err := roles.Create(ctx, audit.SystemActor, map[string]any{"name": name}); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		logs.Logger.WithField("role", name).Info("role seeded")
	}
	return nil
}
