package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"realty/internal/api"
	"realty/internal/audit"
	"realty/internal/auth"
	"realty/internal/db/dbtest"
	"realty/internal/models"
	"realty/internal/repo"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *mux.Router
	roles  map[string]uint
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	d := dbtest.Open(t)
	rec := audit.NewRecorder(d)
	if err := auth.SeedRoles(context.Background(), repo.NewStore(d, repo.Roles, rec)); err != nil {
		t.Fatalf("SeedRoles: %v", err)
	}
	hasher, err := auth.NewPasswordHasher(auth.HashBcrypt)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	tokens := auth.NewJWT("test-secret", time.Minute)

	r := mux.NewRouter().StrictSlash(true)
	api.Attach(r, api.Dependencies{
		DB:     d,
		Gate:   auth.NewGate(d, tokens, auth.NewRoleCache()),
		Tokens: tokens,
		Hasher: hasher,
		Audit:  rec,
	})

	s := &testServer{t: t, db: d, router: r, roles: map[string]uint{}}
	for _, name := range auth.WellKnownRoles {
		role, err := repo.FindOne(context.Background(), d, repo.Roles, map[string]any{"name": name})
		if err != nil {
			t.Fatalf("role %s: %v", name, err)
		}
		s.roles[name] = role.ID
	}
	return s
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) expect(rec *httptest.ResponseRecorder, status int) {
	s.t.Helper()
	if rec.Code != status {
		s.t.Fatalf("status = %d, want %d; body: %s", rec.Code, status, rec.Body.String())
	}
}

// signup регистрирует пользователя с ролью и возвращает его токен и id.
func (s *testServer) signup(email, role string) (string, uint) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/user/register/role", "", map[string]any{
		"email": email, "password": "pw-" + email, "role_id": s.roles[role],
	})
	s.expect(rec, http.StatusCreated)
	var created struct {
		ID uint `json:"id"`
	}
	decode(s.t, rec, &created)

	rec = s.do(http.MethodPost, "/user/token", "", map[string]any{"email": email, "password": "pw-" + email})
	s.expect(rec, http.StatusOK)
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decode(s.t, rec, &tok)
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		s.t.Fatalf("token response = %+v", tok)
	}
	return tok.AccessToken, created.ID
}

func (s *testServer) count(model any) int64 {
	s.t.Helper()
	var n int64
	if err := s.db.Model(model).Count(&n).Error; err != nil {
		s.t.Fatalf("count: %v", err)
	}
	return n
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/user/register", "", map[string]any{"email": "Buyer@Example.com", "password": "secret"})
	s.expect(rec, http.StatusCreated)

	var u models.User
	if err := s.db.Where("email = ?", "buyer@example.com").First(&u).Error; err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.RoleID != s.roles[models.RoleEndUser] || u.Password == "secret" {
		t.Fatalf("stored user = %+v", u)
	}

	// журнал: системный актор, пароль скрыт
	var e models.AuditLog
	if err := s.db.Where("table_name = ? AND record_id = ?", "users", u.ID).First(&e).Error; err != nil {
		t.Fatalf("audit: %v", err)
	}
	if e.ChangedBy != audit.SystemActor || e.NewValues["password"] != repo.Redacted {
		t.Fatalf("audit entry = %+v", e)
	}

	s.expect(s.do(http.MethodPost, "/user/register", "", map[string]any{"email": "buyer@example.com", "password": "x"}), http.StatusConflict)
	s.expect(s.do(http.MethodPost, "/user/register", "", map[string]any{"email": "nope", "password": "x"}), http.StatusBadRequest)

	rec = s.do(http.MethodPost, "/user/token", "", map[string]any{"email": "buyer@example.com", "password": "wrong"})
	s.expect(rec, http.StatusUnauthorized)
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("missing WWW-Authenticate header")
	}
	s.expect(s.do(http.MethodPost, "/user/token", "", map[string]any{"email": "buyer@example.com", "password": "secret"}), http.StatusOK)
}

func TestRegisterWithUnknownRoleListsRoles(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/user/register/role", "", map[string]any{"email": "a@b.c", "password": "x", "role_id": 999})
	s.expect(rec, http.StatusBadRequest)
	var p models.Problem
	decode(t, rec, &p)
	extra, _ := p.Extra.(map[string]any)
	roles, _ := extra["roles"].([]any)
	if p.Error != "role_not_found" || len(roles) != len(auth.WellKnownRoles) {
		t.Fatalf("problem = %+v", p)
	}
}

func TestAmenityLifecycleAsAdmin(t *testing.T) {
	s := newServer(t)
	admin, adminID := s.signup("admin@example.com", models.RoleAdmin)

	rec := s.do(http.MethodPost, "/amenities/", admin, map[string]any{"name": "Pool", "description": "Outdoor"})
	s.expect(rec, http.StatusCreated)
	var a models.Amenity
	decode(t, rec, &a)
	if a.CreatedByUser != adminID {
		t.Fatalf("created_by_user = %d, want %d", a.CreatedByUser, adminID)
	}

	rec = s.do(http.MethodPut, fmt.Sprintf("/amenities/%d", a.ID), admin, map[string]any{"description": "Heated"})
	s.expect(rec, http.StatusOK)

	rec = s.do(http.MethodGet, fmt.Sprintf("/audit/record/amenities/%d", a.ID), admin, nil)
	s.expect(rec, http.StatusOK)
	var hist []models.AuditLog
	decode(t, rec, &hist)
	if len(hist) != 2 {
		t.Fatalf("history = %d entries, want 2", len(hist))
	}
	if hist[0].ChangedBy != adminID || hist[1].ChangedBy != adminID {
		t.Fatalf("changed_by = %d/%d", hist[0].ChangedBy, hist[1].ChangedBy)
	}
	if hist[1].NewValues["description"] != "Heated" || len(hist[1].NewValues) != 1 {
		t.Fatalf("update new_values = %v", hist[1].NewValues)
	}
	if hist[1].OldValues["description"] != "Outdoor" {
		t.Fatalf("update old_values = %v", hist[1].OldValues)
	}

	// список публичный
	rec = s.do(http.MethodGet, "/amenities/all", "", nil)
	s.expect(rec, http.StatusOK)
	var all []models.Amenity
	decode(t, rec, &all)
	if len(all) != 1 || all[0].Name != "Pool" {
		t.Fatalf("list = %+v", all)
	}

	s.expect(s.do(http.MethodDelete, fmt.Sprintf("/amenities/%d", a.ID), admin, nil), http.StatusOK)
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/amenities/%d", a.ID), admin, nil), http.StatusNotFound)
	s.expect(s.do(http.MethodDelete, fmt.Sprintf("/amenities/%d", a.ID), admin, nil), http.StatusNotFound)
}

func TestForbiddenHasNoSideEffects(t *testing.T) {
	s := newServer(t)
	user, _ := s.signup("buyer@example.com", models.RoleEndUser)
	before := s.count(&models.AuditLog{})

	rec := s.do(http.MethodPost, "/amenities/", user, map[string]any{"name": "Gym"})
	s.expect(rec, http.StatusForbidden)
	var p models.Problem
	decode(t, rec, &p)
	if p.Error != "forbidden" {
		t.Fatalf("problem = %+v", p)
	}

	// и тело с ошибкой валидации тоже не доходит до разбора
	s.expect(s.do(http.MethodPost, "/property-type/", user, map[string]any{"name": 12}), http.StatusForbidden)

	if n := s.count(&models.Amenity{}); n != 0 {
		t.Fatalf("amenities = %d, want 0", n)
	}
	if n := s.count(&models.AuditLog{}); n != before {
		t.Fatalf("audit entries = %d, want %d", n, before)
	}
}

func TestMissingOrBadToken(t *testing.T) {
	s := newServer(t)

	for _, tok := range []string{"", "garbage"} {
		rec := s.do(http.MethodPost, "/amenities/", tok, map[string]any{"name": "Gym"})
		s.expect(rec, http.StatusUnauthorized)
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("token %q: missing WWW-Authenticate", tok)
		}
	}

	expired, _, _ := auth.NewJWT("test-secret", -time.Minute).Issue("admin@example.com")
	rec := s.do(http.MethodGet, "/audit/all", expired, nil)
	s.expect(rec, http.StatusUnauthorized)
	var p models.Problem
	decode(t, rec, &p)
	if p.Error != "token_expired" {
		t.Fatalf("problem = %+v", p)
	}
}

func TestQueryFlow(t *testing.T) {
	s := newServer(t)
	admin, _ := s.signup("admin@example.com", models.RoleAdmin)
	user, userID := s.signup("buyer@example.com", models.RoleEndUser)

	var pt models.PropertyType
	var pc models.PropertyConfig
	rec := s.do(http.MethodPost, "/property-type/", admin, map[string]any{"name": "Villa"})
	s.expect(rec, http.StatusCreated)
	decode(t, rec, &pt)
	rec = s.do(http.MethodPost, "/property-configs/", admin, map[string]any{"name": "3BHK"})
	s.expect(rec, http.StatusCreated)
	decode(t, rec, &pc)

	base := map[string]any{
		"user_phonenumber":   "9876543210",
		"user_name":          "Asha",
		"property_type_id":   pt.ID,
		"property_config_id": pc.ID,
	}
	with := func(extra map[string]any) map[string]any {
		m := map[string]any{}
		for k, v := range base {
			m[k] = v
		}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	s.expect(s.do(http.MethodPost, "/query/", user, with(map[string]any{"query_type": models.QueryRentHome})), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, "/query/", user, with(map[string]any{"query_type": "Swap_a_home"})), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, "/query/", user, with(map[string]any{
		"query_type": models.QueryBuyHome, "user_phonenumber": "98765432101",
	})), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, "/query/", user, with(map[string]any{
		"query_type": models.QueryBuyHome, "amenities_id": 404,
	})), http.StatusConflict)

	rec = s.do(http.MethodPost, "/query/", user, with(map[string]any{"query_type": models.QueryBuyHome}))
	s.expect(rec, http.StatusCreated)
	var q models.Query
	decode(t, rec, &q)

	// читать обращения может только admin/superAdmin
	s.expect(s.do(http.MethodGet, "/query/", user, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/query/%d", q.ID), admin, nil), http.StatusOK)

	rec = s.do(http.MethodPut, fmt.Sprintf("/query/%d/contacted", q.ID), user,
		map[string]any{"contacted": true, "resolution": "called back"})
	s.expect(rec, http.StatusOK)
	var updated models.Query
	decode(t, rec, &updated)
	if !updated.Contacted || updated.Resolution == nil || *updated.Resolution != "called back" {
		t.Fatalf("updated = %+v", updated)
	}
	var e models.AuditLog
	if err := s.db.Where("table_name = ? AND record_id = ?", "queries", q.ID).Order("id DESC").First(&e).Error; err != nil {
		t.Fatalf("audit: %v", err)
	}
	if e.ChangedBy != userID {
		t.Fatalf("changed_by = %d, want %d", e.ChangedBy, userID)
	}

	// тип недвижимости занят обращением
	s.expect(s.do(http.MethodDelete, fmt.Sprintf("/property-type/%d", pt.ID), admin, nil), http.StatusConflict)
}

func TestRolesAdministration(t *testing.T) {
	s := newServer(t)
	super, _ := s.signup("root@example.com", models.RoleSuperAdmin)
	admin, _ := s.signup("admin@example.com", models.RoleAdmin)

	rec := s.do(http.MethodGet, "/roles/", "", nil)
	s.expect(rec, http.StatusOK)
	var roles []models.Role
	decode(t, rec, &roles)
	if len(roles) != len(auth.WellKnownRoles) {
		t.Fatalf("roles = %+v", roles)
	}

	s.expect(s.do(http.MethodPost, "/roles/", admin, map[string]any{"name": "agent"}), http.StatusForbidden)
	rec = s.do(http.MethodPost, "/roles/", super, map[string]any{"name": "agent"})
	s.expect(rec, http.StatusCreated)
	var agent models.Role
	decode(t, rec, &agent)

	s.expect(s.do(http.MethodPost, "/roles/", super, map[string]any{"name": "agent"}), http.StatusConflict)
	s.expect(s.do(http.MethodPut, fmt.Sprintf("/roles/%d", agent.ID), super, map[string]any{"name": "agent"}), http.StatusConflict)
	s.expect(s.do(http.MethodPut, fmt.Sprintf("/roles/%d", agent.ID), super, map[string]any{"name": "broker"}), http.StatusOK)
	s.expect(s.do(http.MethodPut, "/roles/999", super, map[string]any{"name": "x"}), http.StatusNotFound)

	// роль с пользователями не удаляется
	s.expect(s.do(http.MethodDelete, fmt.Sprintf("/roles/%d", s.roles[models.RoleAdmin]), super, nil), http.StatusConflict)
	s.expect(s.do(http.MethodDelete, fmt.Sprintf("/roles/%d", agent.ID), super, nil), http.StatusOK)

	rec = s.do(http.MethodGet, "/user/", super, nil)
	s.expect(rec, http.StatusOK)
	var users []struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, rec, &users)
	if len(users) != 2 || users[0].Role != models.RoleSuperAdmin || users[1].Role != models.RoleAdmin {
		t.Fatalf("users = %+v", users)
	}
	s.expect(s.do(http.MethodGet, "/user/", admin, nil), http.StatusForbidden)
}

func TestAddressValidation(t *testing.T) {
	s := newServer(t)
	admin, adminID := s.signup("admin@example.com", models.RoleAdmin)

	s.expect(s.do(http.MethodPost, "/property-address/", admin, map[string]any{"city": "Pune"}), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, "/property-address/", admin, map[string]any{
		"city": "Pune", "state": "MH", "country": "IN", "zip_code": "4110011",
	}), http.StatusBadRequest)

	rec := s.do(http.MethodPost, "/property-address/", admin, map[string]any{
		"street": "MG Road", "city": "Pune", "state": "MH", "country": "IN", "zip_code": "411001",
	})
	s.expect(rec, http.StatusCreated)
	var a models.PropertyAddress
	decode(t, rec, &a)
	if a.CreatedByUser == nil || *a.CreatedByUser != adminID {
		t.Fatalf("created_by_user = %v", a.CreatedByUser)
	}

	rec = s.do(http.MethodPut, fmt.Sprintf("/property-address/%d", a.ID), admin, map[string]any{"street": "FC Road"})
	s.expect(rec, http.StatusOK)
	var got models.PropertyAddress
	decode(t, rec, &got)
	if *got.Street != "FC Road" || got.City != "Pune" {
		t.Fatalf("updated = %+v", got)
	}
	s.expect(s.do(http.MethodGet, "/property-address/", "", nil), http.StatusUnauthorized)
}
