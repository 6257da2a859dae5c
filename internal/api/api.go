// Package api — JSON HTTP API поверх repo.Store и auth.Gate.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"realty/internal/audit"
	"realty/internal/auth"
	"realty/internal/models"
	"realty/internal/repo"
)

type Dependencies struct {
	DB     *gorm.DB
	Gate   *auth.Gate
	Tokens *auth.JWT
	Hasher auth.Hasher
	Audit  *audit.Recorder
}

type Handler struct {
	d Dependencies

	users     *repo.Store[models.User]
	roles     *repo.Store[models.Role]
	types     *repo.Store[models.PropertyType]
	configs   *repo.Store[models.PropertyConfig]
	addresses *repo.Store[models.PropertyAddress]
	amenities *repo.Store[models.Amenity]
	queries   *repo.Store[models.Query]
}

func NewHandler(d Dependencies) *Handler {
	return &Handler{
		d:         d,
		users:     repo.NewStore(d.DB, repo.Users, d.Audit),
		roles:     repo.NewStore(d.DB, repo.Roles, d.Audit),
		types:     repo.NewStore(d.DB, repo.PropertyTypes, d.Audit),
		configs:   repo.NewStore(d.DB, repo.PropertyConfigs, d.Audit),
		addresses: repo.NewStore(d.DB, repo.PropertyAddresses, d.Audit),
		amenities: repo.NewStore(d.DB, repo.Amenities, d.Audit),
		queries:   repo.NewStore(d.DB, repo.Queries, d.Audit),
	}
}

// Attach вешает все маршруты API на r.
func Attach(r *mux.Router, d Dependencies) *Handler {
	h := NewHandler(d)
	const id = "/{id:[0-9]+}"

	// users
	u := r.PathPrefix("/user").Subrouter()
	u.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	u.HandleFunc("/register/role", h.RegisterWithRole).Methods(http.MethodPost)
	u.HandleFunc("/token", h.Token).Methods(http.MethodPost)
	u.HandleFunc("/", h.ListUsers).Methods(http.MethodGet)

	// roles
	roles := h.roleResource()
	ro := r.PathPrefix("/roles").Subrouter()
	ro.HandleFunc("/", roles.List).Methods(http.MethodGet)
	ro.HandleFunc("/", roles.Create).Methods(http.MethodPost)
	ro.HandleFunc(id, h.RenameRole).Methods(http.MethodPut)
	ro.HandleFunc(id, roles.Delete).Methods(http.MethodDelete)

	// справочники
	mountCatalog(r.PathPrefix("/property-type").Subrouter(), namedResource(h, h.types))
	mountCatalog(r.PathPrefix("/property-configs").Subrouter(), namedResource(h, h.configs))
	mountCatalog(r.PathPrefix("/amenities").Subrouter(), namedResource(h, h.amenities))

	addr := h.addressResource()
	ad := r.PathPrefix("/property-address").Subrouter()
	ad.HandleFunc("/", addr.List).Methods(http.MethodGet)
	ad.HandleFunc("/", addr.Create).Methods(http.MethodPost)
	ad.HandleFunc(id, addr.Get).Methods(http.MethodGet)
	ad.HandleFunc(id, addr.Update).Methods(http.MethodPut)
	ad.HandleFunc(id, addr.Delete).Methods(http.MethodDelete)

	// обращения клиентов
	qs := h.queryResource()
	q := r.PathPrefix("/query").Subrouter()
	q.HandleFunc("/", qs.List).Methods(http.MethodGet)
	q.HandleFunc("/", h.CreateQuery).Methods(http.MethodPost)
	q.HandleFunc(id, qs.Get).Methods(http.MethodGet)
	q.HandleFunc(id, qs.Update).Methods(http.MethodPut)
	q.HandleFunc(id, qs.Delete).Methods(http.MethodDelete)
	q.HandleFunc(id+"/contacted", h.MarkContacted).Methods(http.MethodPut)

	// журнал (только чтение)
	a := r.PathPrefix("/audit").Subrouter()
	a.HandleFunc("/all", h.AuditList).Methods(http.MethodGet)
	a.HandleFunc(id, h.AuditGet).Methods(http.MethodGet)
	a.HandleFunc("/record/{table}/{record_id:[0-9]+}", h.AuditForRecord).Methods(http.MethodGet)

	return h
}

func mountCatalog[T any](sub *mux.Router, res *resource[T]) {
	sub.HandleFunc("/all", res.List).Methods(http.MethodGet)
	sub.HandleFunc("/", res.Create).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}", res.Get).Methods(http.MethodGet)
	sub.HandleFunc("/{id:[0-9]+}", res.Update).Methods(http.MethodPut)
	sub.HandleFunc("/{id:[0-9]+}", res.Delete).Methods(http.MethodDelete)
}

// bearer достаёт токен из "Authorization: Bearer <token>".
func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// guard проверяет токен и роль; при отказе ответ уже записан.
func (h *Handler) guard(w http.ResponseWriter, r *http.Request, p auth.Policy) (auth.Identity, bool) {
	id, err := h.d.Gate.Check(r.Context(), bearer(r), p)
	if err != nil {
		writeError(w, r, err)
		return auth.Identity{}, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || n == 0 {
		writeError(w, r, badRequest("invalid %s", name))
		return 0, false
	}
	return uint(n), true
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("empty body")
		}
		return badRequest("malformed JSON: %v", err)
	}
	return nil
}

func requireString(name string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return badRequest("%s is required", name)
	}
	return nil
}
