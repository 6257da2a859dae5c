package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"realty/internal/audit"
	"realty/internal/auth"
	"realty/internal/db/dbtest"
	"realty/internal/repo"
)

func TestReadyzNeedsRoles(t *testing.T) {
	d := dbtest.Open(t)
	r := mux.NewRouter()
	RegisterRoutesWithDB(r, d)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	rec := get("/readyz")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "superAdmin") {
		t.Fatalf("readyz without roles = %d %s", rec.Code, rec.Body.String())
	}

	roles := repo.NewStore(d, repo.Roles, audit.NewRecorder(d))
	if err := auth.SeedRoles(context.Background(), roles); err != nil {
		t.Fatalf("SeedRoles: %v", err)
	}
	if rec := get("/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz with roles = %d %s", rec.Code, rec.Body.String())
	}
}
