package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"realty/internal/auth"
	"realty/internal/models"
)

func (h *Handler) AuditList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.guard(w, r, auth.SuperAdminOrAdmin); !ok {
		return
	}
	entries, err := h.d.Audit.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) AuditGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.guard(w, r, auth.SuperAdminOrAdmin); !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.d.Audit.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, e)
}

// AuditForRecord — история одной записи: /audit/record/{table}/{record_id}.
func (h *Handler) AuditForRecord(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.guard(w, r, auth.SuperAdminOrAdmin); !ok {
		return
	}
	rid, ok := pathID(w, r, "record_id")
	if !ok {
		return
	}
	entries, err := h.d.Audit.ListForRecord(r.Context(), mux.Vars(r)["table"], rid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, entries)
}
