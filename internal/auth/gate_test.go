package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"realty/internal/audit"
	"realty/internal/auth"
	"realty/internal/db/dbtest"
	"realty/internal/models"
	"realty/internal/repo"
)

type env struct {
	db    *gorm.DB
	jwt   *auth.JWT
	roles *repo.Store[models.Role]
	ids   map[string]uint // роль → id пользователя с этой ролью
}

func newEnv(t *testing.T) env {
	t.Helper()
	d := dbtest.Open(t)
	ctx := context.Background()

	roles := repo.NewStore(d, repo.Roles, audit.NewRecorder(d))
	if err := auth.SeedRoles(ctx, roles); err != nil {
		t.Fatalf("SeedRoles: %v", err)
	}

	e := env{db: d, jwt: auth.NewJWT("s3cret", time.Minute), roles: roles, ids: map[string]uint{}}
	for _, name := range auth.WellKnownRoles {
		r, err := roles.FindOne(ctx, map[string]any{"name": name})
		if err != nil {
			t.Fatalf("role %s: %v", name, err)
		}
		u := models.User{Email: name + "@example.com", Password: "x", RoleID: r.ID}
		if err := d.Create(&u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
		e.ids[name] = u.ID
	}
	return e
}

func (e env) token(t *testing.T, role string) string {
	t.Helper()
	tok, _, err := e.jwt.Issue(role + "@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func TestGateRolePolicies(t *testing.T) {
	e := newEnv(t)
	g := auth.NewGate(e.db, e.jwt, nil)
	ctx := context.Background()

	tcs := []struct {
		policy string
		check  func(context.Context, string) (auth.Identity, error)
		allow  []string
	}{
		{"SuperAdminOnly", g.SuperAdminOnly, []string{models.RoleSuperAdmin}},
		{"AdminOnly", g.AdminOnly, []string{models.RoleAdmin}},
		{"SuperAdminOrAdmin", g.SuperAdminOrAdmin, []string{models.RoleSuperAdmin, models.RoleAdmin}},
		{"EndUserOnly", g.EndUserOnly, []string{models.RoleEndUser}},
		{"AnyUser", g.AnyUser, auth.WellKnownRoles},
	}
	for _, tc := range tcs {
		for _, role := range auth.WellKnownRoles {
			t.Run(tc.policy+"/"+role, func(t *testing.T) {
				id, err := tc.check(ctx, e.token(t, role))
				allowed := false
				for _, a := range tc.allow {
					allowed = allowed || a == role
				}
				if allowed {
					if err != nil {
						t.Fatalf("err = %v, want allowed", err)
					}
					if id.ID != e.ids[role] || id.Email != role+"@example.com" {
						t.Fatalf("identity = %+v", id)
					}
					return
				}
				if !errors.Is(err, auth.ErrForbidden) {
					t.Fatalf("err = %v, want ErrForbidden", err)
				}
			})
		}
	}
}

func TestGateResolve(t *testing.T) {
	e := newEnv(t)
	g := auth.NewGate(e.db, e.jwt, nil)
	ctx := context.Background()

	ghost, _, _ := e.jwt.Issue("ghost@example.com")
	if _, err := g.Resolve(ctx, ghost); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("unknown subject err = %v", err)
	}
	if _, err := g.Resolve(ctx, ""); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("empty token err = %v", err)
	}

	expiredJWT := auth.NewJWT("s3cret", -time.Minute)
	old, _, _ := expiredJWT.Issue(models.RoleAdmin + "@example.com")
	if _, err := g.Resolve(ctx, old); !errors.Is(err, auth.ErrExpired) {
		t.Fatalf("expired err = %v, want ErrExpired", err)
	}
}

func TestGateReadsRoleLive(t *testing.T) {
	e := newEnv(t)
	g := auth.NewGate(e.db, e.jwt, nil)
	ctx := context.Background()
	tok := e.token(t, models.RoleEndUser)

	if _, err := g.SuperAdminOrAdmin(ctx, tok); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("before promotion err = %v", err)
	}
	admin, err := e.roles.FindOne(ctx, map[string]any{"name": models.RoleAdmin})
	if err != nil {
		t.Fatalf("admin role: %v", err)
	}
	err = e.db.Model(&models.User{}).Where("id = ?", e.ids[models.RoleEndUser]).Update("role_id", admin.ID).Error
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := g.SuperAdminOrAdmin(ctx, tok); err != nil {
		t.Fatalf("after promotion err = %v", err)
	}
}

func TestGateMissingRoleFailsClosed(t *testing.T) {
	e := newEnv(t)
	g := auth.NewGate(e.db, e.jwt, nil)
	ctx := context.Background()

	// суперадмин остаётся, но роли admin больше нет
	if err := e.db.Delete(&models.User{}, e.ids[models.RoleAdmin]).Error; err != nil {
		t.Fatalf("delete admin user: %v", err)
	}
	if err := e.db.Where("name = ?", models.RoleAdmin).Delete(&models.Role{}).Error; err != nil {
		t.Fatalf("delete admin role: %v", err)
	}
	_, err := g.SuperAdminOrAdmin(ctx, e.token(t, models.RoleSuperAdmin))
	if !errors.Is(err, repo.ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal", err)
	}
	if errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("missing role must not look like a plain denial: %v", err)
	}
}

func TestRoleCacheInvalidation(t *testing.T) {
	e := newEnv(t)
	cache := auth.NewRoleCache()
	g := auth.NewGate(e.db, e.jwt, cache)
	ctx := context.Background()
	tok := e.token(t, models.RoleAdmin)

	if _, err := g.AdminOnly(ctx, tok); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	// переименовываем роли: "admin" теперь другой id
	admin, _ := e.roles.FindOne(ctx, map[string]any{"name": models.RoleAdmin})
	endUser, _ := e.roles.FindOne(ctx, map[string]any{"name": models.RoleEndUser})
	for _, step := range []struct {
		id   uint
		name string
	}{
		{admin.ID, "tmp"},
		{endUser.ID, models.RoleAdmin},
		{admin.ID, models.RoleEndUser},
	} {
		if _, err := e.roles.Update(ctx, audit.SystemActor, step.id, map[string]any{"name": step.name}); err != nil {
			t.Fatalf("rename: %v", err)
		}
	}
	cache.Invalidate()

	if _, err := g.AdminOnly(ctx, tok); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("after invalidation err = %v, want ErrForbidden", err)
	}
	if _, err := g.AdminOnly(ctx, e.token(t, models.RoleEndUser)); err != nil {
		t.Fatalf("former endUser is now admin: %v", err)
	}
}

func TestCheckRoles(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()

	if err := auth.CheckRoles(ctx, d); err == nil {
		t.Fatal("empty roles table accepted")
	}
	roles := repo.NewStore(d, repo.Roles, audit.NewRecorder(d))
	if err := auth.SeedRoles(ctx, roles); err != nil {
		t.Fatalf("SeedRoles: %v", err)
	}
	if err := auth.SeedRoles(ctx, roles); err != nil {
		t.Fatalf("SeedRoles twice: %v", err)
	}
	if err := auth.CheckRoles(ctx, d); err != nil {
		t.Fatalf("CheckRoles: %v", err)
	}
	all, _ := roles.FetchAll(ctx)
	if len(all) != len(auth.WellKnownRoles) {
		t.Fatalf("roles = %d, want %d", len(all), len(auth.WellKnownRoles))
	}
}
