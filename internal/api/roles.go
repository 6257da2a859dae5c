package api

import (
	"fmt"
	"net/http"

	"realty/internal/auth"
	"realty/internal/models"
	"realty/internal/repo"
)

func (h *Handler) roleResource() *resource[models.Role] {
	return &resource[models.Role]{
		h:       h,
		store:   h.roles,
		public:  true,
		write:   auth.SuperAdminOnly,
		decode:  decodeNamed,
		changed: h.d.Gate.Cache().Invalidate,
	}
}

// RenameRole — PUT /roles/{id}. Переименование в текущее имя — конфликт.
func (h *Handler) RenameRole(w http.ResponseWriter, r *http.Request) {
	who, ok := h.guard(w, r, auth.SuperAdminOnly)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	fields, err := decodeNamed(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := h.roles.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if name, ok := fields["name"]; ok && name == current.Name {
		writeError(w, r, fmt.Errorf("%w: role already has name %q", repo.ErrConstraintViolation, current.Name))
		return
	}
	role, err := h.roles.Update(r.Context(), who.ID, id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.d.Gate.Cache().Invalidate()
	models.WriteJSON(w, http.StatusOK, role)
}
