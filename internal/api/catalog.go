package api

import (
	"net/http"

	"realty/internal/auth"
	"realty/internal/models"
	"realty/internal/repo"
)

// namedRequest — тело для типов, конфигураций и удобств.
type namedRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func decodeNamed(r *http.Request, creating bool) (map[string]any, error) {
	var req namedRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	f := map[string]any{}
	if req.Name != nil || creating {
		if err := requireString("name", req.Name); err != nil {
			return nil, err
		}
		f["name"] = *req.Name
	}
	if req.Description != nil {
		f["description"] = *req.Description
	}
	return f, nil
}

// список публичный, остальное — admin или superAdmin
func namedResource[T any](h *Handler, store *repo.Store[T]) *resource[T] {
	return &resource[T]{
		h:      h,
		store:  store,
		public: true,
		read:   auth.SuperAdminOrAdmin,
		write:  auth.SuperAdminOrAdmin,
		decode: decodeNamed,
		stamp:  true,
	}
}

type addressRequest struct {
	HouseNo      *string `json:"house_no"`
	BuildingName *string `json:"building_name"`
	Street       *string `json:"street"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Country      *string `json:"country"`
	ZipCode      *string `json:"zip_code"`
}

func decodeAddress(r *http.Request, creating bool) (map[string]any, error) {
	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	f := map[string]any{}
	for _, opt := range []struct {
		col string
		v   *string
	}{
		{"house_no", req.HouseNo},
		{"building_name", req.BuildingName},
		{"street", req.Street},
	} {
		if opt.v != nil {
			f[opt.col] = *opt.v
		}
	}
	for _, must := range []struct {
		col string
		v   *string
	}{
		{"city", req.City},
		{"state", req.State},
		{"country", req.Country},
		{"zip_code", req.ZipCode},
	} {
		if must.v == nil && !creating {
			continue
		}
		if err := requireString(must.col, must.v); err != nil {
			return nil, err
		}
		f[must.col] = *must.v
	}
	if zip, ok := f["zip_code"].(string); ok && len(zip) > 6 {
		return nil, badRequest("zip_code must be at most 6 characters")
	}
	return f, nil
}

func (h *Handler) addressResource() *resource[models.PropertyAddress] {
	return &resource[models.PropertyAddress]{
		h:      h,
		store:  h.addresses,
		read:   auth.SuperAdminOrAdmin,
		write:  auth.SuperAdminOrAdmin,
		decode: decodeAddress,
		stamp:  true,
	}
}
