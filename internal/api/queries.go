package api

import (
	"net/http"
	"unicode/utf8"

	"realty/internal/auth"
	"realty/internal/models"
)

// queryRequest — тело POST/PUT /query. Указатели: при PUT меняются только присланные поля.
type queryRequest struct {
	UserPhonenumber   *string `json:"user_phonenumber"`
	UserName          *string `json:"user_name"`
	QueryType         *string `json:"query_type"`
	PropertyTypeID    *uint   `json:"property_type_id"`
	PropertyConfigID  *uint   `json:"property_config_id"`
	PropertyAddressID *uint   `json:"property_address_id"`
	AmenitiesID       *uint   `json:"amenities_id"`
	Contacted         *bool   `json:"contacted"`
	Resolution        *string `json:"resolution"`
}

func decodeQuery(r *http.Request, creating bool) (map[string]any, error) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	f := map[string]any{}

	if req.UserPhonenumber != nil || creating {
		if err := requireString("user_phonenumber", req.UserPhonenumber); err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(*req.UserPhonenumber) > 10 {
			return nil, badRequest("user_phonenumber must be at most 10 characters")
		}
		f["user_phonenumber"] = *req.UserPhonenumber
	}
	if req.UserName != nil || creating {
		if err := requireString("user_name", req.UserName); err != nil {
			return nil, err
		}
		f["user_name"] = *req.UserName
	}
	if req.QueryType != nil || creating {
		if req.QueryType == nil || !models.IsValidQueryType(*req.QueryType) {
			return nil, badRequest("query_type must be one of %s, %s, %s",
				models.QueryBuyHome, models.QueryRentHome, models.QuerySellHome)
		}
		f["query_type"] = *req.QueryType
	}
	for _, ref := range []struct {
		col string
		v   *uint
	}{
		{"property_type_id", req.PropertyTypeID},
		{"property_config_id", req.PropertyConfigID},
	} {
		if ref.v == nil {
			if creating {
				return nil, badRequest("%s is required", ref.col)
			}
			continue
		}
		f[ref.col] = *ref.v
	}
	if req.PropertyAddressID != nil {
		f["property_address_id"] = *req.PropertyAddressID
	}
	if req.AmenitiesID != nil {
		f["amenities_id"] = *req.AmenitiesID
	}
	if req.Contacted != nil {
		f["contacted"] = *req.Contacted
	}
	if req.Resolution != nil {
		f["resolution"] = *req.Resolution
	}

	// адрес обязателен для всего, кроме покупки
	if creating && *req.QueryType != models.QueryBuyHome && req.PropertyAddressID == nil {
		return nil, badRequest("address is required")
	}
	return f, nil
}

func (h *Handler) queryResource() *resource[models.Query] {
	return &resource[models.Query]{
		h:      h,
		store:  h.queries,
		read:   auth.SuperAdminOrAdmin,
		write:  auth.SuperAdminOrAdmin,
		decode: decodeQuery,
	}
}

type contactedRequest struct {
	Contacted  *bool   `json:"contacted"`
	Resolution *string `json:"resolution"`
}

// MarkContacted — PUT /query/{id}/contacted, любой вошедший пользователь.
func (h *Handler) MarkContacted(w http.ResponseWriter, r *http.Request) {
	who, ok := h.guard(w, r, auth.AnyUser)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req contactedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Contacted == nil {
		writeError(w, r, badRequest("contacted is required"))
		return
	}
	fields := map[string]any{"contacted": *req.Contacted}
	if req.Resolution != nil {
		fields["resolution"] = *req.Resolution
	}
	q, err := h.queries.Update(r.Context(), who.ID, id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, q)
}

// CreateQuery — POST /query: любой вошедший пользователь оставляет обращение.
func (h *Handler) CreateQuery(w http.ResponseWriter, r *http.Request) {
	who, ok := h.guard(w, r, auth.AnyUser)
	if !ok {
		return
	}
	fields, err := decodeQuery(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.queries.Create(r.Context(), who.ID, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, q)
}
