package repo

import (
	"fmt"

	"realty/internal/models"
)

// Дескрипторы управляемых таблиц. id, created_at, updated_at ведёт Store, через Set их не записать.

var baseColumns = []string{"id", "created_at", "updated_at"}

func columns(own ...string) []string {
	return append(append([]string{}, baseColumns...), own...)
}

func baseValues(b *models.Base, m map[string]any) map[string]any {
	m["id"] = b.ID
	m["created_at"] = b.CreatedAt
	m["updated_at"] = b.UpdatedAt
	return m
}

var Roles = Shape[models.Role]{
	Table:   "roles",
	Columns: columns("name", "description"),
	Base:    func(r *models.Role) *models.Base { return &r.Base },
	Values: func(r *models.Role) map[string]any {
		return baseValues(&r.Base, map[string]any{
			"name":        r.Name,
			"description": r.Description,
		})
	},
	Set: func(r *models.Role, col string, v any) (err error) {
		switch col {
		case "name":
			r.Name, err = asString(col, v)
		case "description":
			r.Description, err = asOptString(col, v)
		default:
			err = readOnly(col)
		}
		return err
	},
}

var Users = Shape[models.User]{
	Table:   "users",
	Columns: columns("email", "password", "verification_code", "confirmed", "role_id"),
	Base:    func(u *models.User) *models.Base { return &u.Base },
	Values: func(u *models.User) map[string]any {
		return baseValues(&u.Base, map[string]any{
			"email":             u.Email,
			"password":          u.Password,
			"verification_code": u.VerificationCode,
			"confirmed":         u.Confirmed,
			"role_id":           u.RoleID,
		})
	},
	Set: func(u *models.User, col string, v any) (err error) {
		switch col {
		case "email":
			u.Email, err = asString(col, v)
		case "password":
			u.Password, err = asString(col, v)
		case "verification_code":
			u.VerificationCode, err = asOptString(col, v)
		case "confirmed":
			u.Confirmed, err = asBool(col, v)
		case "role_id":
			u.RoleID, err = asUint(col, v)
		default:
			err = readOnly(col)
		}
		return err
	},
	Redact: []string{"password", "verification_code"},
}

// named — общая форма справочников: name, description, created_by_user.
func named(col string, v any, name *string, desc **string, by *uint) (err error) {
	switch col {
	case "name":
		*name, err = asString(col, v)
	case "description":
		*desc, err = asOptString(col, v)
	case "created_by_user":
		*by, err = asUint(col, v)
	default:
		err = readOnly(col)
	}
	return err
}

func namedValues(b *models.Base, name string, desc *string, by uint) map[string]any {
	return baseValues(b, map[string]any{
		"name":            name,
		"description":     desc,
		"created_by_user": by,
	})
}

var namedColumns = columns("name", "description", "created_by_user")

var PropertyTypes = Shape[models.PropertyType]{
	Table:   "property_types",
	Columns: namedColumns,
	Base:    func(p *models.PropertyType) *models.Base { return &p.Base },
	Values: func(p *models.PropertyType) map[string]any {
		return namedValues(&p.Base, p.Name, p.Description, p.CreatedByUser)
	},
	Set: func(p *models.PropertyType, col string, v any) error {
		return named(col, v, &p.Name, &p.Description, &p.CreatedByUser)
	},
}

var PropertyConfigs = Shape[models.PropertyConfig]{
	Table:   "property_config",
	Columns: namedColumns,
	Base:    func(p *models.PropertyConfig) *models.Base { return &p.Base },
	Values: func(p *models.PropertyConfig) map[string]any {
		return namedValues(&p.Base, p.Name, p.Description, p.CreatedByUser)
	},
	Set: func(p *models.PropertyConfig, col string, v any) error {
		return named(col, v, &p.Name, &p.Description, &p.CreatedByUser)
	},
}

var Amenities = Shape[models.Amenity]{
	Table:   "amenities",
	Columns: namedColumns,
	Base:    func(a *models.Amenity) *models.Base { return &a.Base },
	Values: func(a *models.Amenity) map[string]any {
		return namedValues(&a.Base, a.Name, a.Description, a.CreatedByUser)
	},
	Set: func(a *models.Amenity, col string, v any) error {
		return named(col, v, &a.Name, &a.Description, &a.CreatedByUser)
	},
}

var PropertyAddresses = Shape[models.PropertyAddress]{
	Table: "property_address",
	Columns: columns("house_no", "building_name", "street", "city", "state", "country",
		"zip_code", "created_by_user"),
	Base: func(a *models.PropertyAddress) *models.Base { return &a.Base },
	Values: func(a *models.PropertyAddress) map[string]any {
		return baseValues(&a.Base, map[string]any{
			"house_no":        a.HouseNo,
			"building_name":   a.BuildingName,
			"street":          a.Street,
			"city":            a.City,
			"state":           a.State,
			"country":         a.Country,
			"zip_code":        a.ZipCode,
			"created_by_user": a.CreatedByUser,
		})
	},
	Set: func(a *models.PropertyAddress, col string, v any) (err error) {
		switch col {
		case "house_no":
			a.HouseNo, err = asOptString(col, v)
		case "building_name":
			a.BuildingName, err = asOptString(col, v)
		case "street":
			a.Street, err = asOptString(col, v)
		case "city":
			a.City, err = asString(col, v)
		case "state":
			a.State, err = asString(col, v)
		case "country":
			a.Country, err = asString(col, v)
		case "zip_code":
			a.ZipCode, err = asString(col, v)
		case "created_by_user":
			a.CreatedByUser, err = asOptUint(col, v)
		default:
			err = readOnly(col)
		}
		return err
	},
}

var Queries = Shape[models.Query]{
	Table: "queries",
	Columns: columns("user_phonenumber", "user_name", "query_type", "property_type_id",
		"property_config_id", "property_address_id", "amenities_id", "contacted", "resolution"),
	Base: func(q *models.Query) *models.Base { return &q.Base },
	Values: func(q *models.Query) map[string]any {
		return baseValues(&q.Base, map[string]any{
			"user_phonenumber":    q.UserPhonenumber,
			"user_name":           q.UserName,
			"query_type":          q.QueryType,
			"property_type_id":    q.PropertyTypeID,
			"property_config_id":  q.PropertyConfigID,
			"property_address_id": q.PropertyAddressID,
			"amenities_id":        q.AmenitiesID,
			"contacted":           q.Contacted,
			"resolution":          q.Resolution,
		})
	},
	Set: func(q *models.Query, col string, v any) (err error) {
		switch col {
		case "user_phonenumber":
			q.UserPhonenumber, err = asString(col, v)
		case "user_name":
			q.UserName, err = asString(col, v)
		case "query_type":
			q.QueryType, err = asString(col, v)
			if err == nil && !models.IsValidQueryType(q.QueryType) {
				err = fmt.Errorf("%w: %s: unknown query type %q", ErrInvalidField, col, q.QueryType)
			}
		case "property_type_id":
			q.PropertyTypeID, err = asUint(col, v)
		case "property_config_id":
			q.PropertyConfigID, err = asUint(col, v)
		case "property_address_id":
			q.PropertyAddressID, err = asOptUint(col, v)
		case "amenities_id":
			q.AmenitiesID, err = asOptUint(col, v)
		case "contacted":
			q.Contacted, err = asBool(col, v)
		case "resolution":
			q.Resolution, err = asOptString(col, v)
		default:
			err = readOnly(col)
		}
		return err
	},
}
