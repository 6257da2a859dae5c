package models

// Тип обращения клиента.
const (
	QueryBuyHome  = "Buy_a_home"
	QueryRentHome = "Rent_a_home"
	QuerySellHome = "Sell_a_home"
)

func IsValidQueryType(s string) bool {
	switch s {
	case QueryBuyHome, QueryRentHome, QuerySellHome:
		return true
	default:
		return false
	}
}

type Query struct {
	Base
	UserPhonenumber   string  `gorm:"size:10;not null" json:"user_phonenumber"`
	UserName          string  `gorm:"not null" json:"user_name"`
	QueryType         string  `gorm:"size:32;not null" json:"query_type"`
	PropertyTypeID    uint    `gorm:"not null;index" json:"property_type_id"`
	PropertyConfigID  uint    `gorm:"not null;index" json:"property_config_id"`
	PropertyAddressID *uint   `gorm:"index" json:"property_address_id"`
	AmenitiesID       *uint   `gorm:"column:amenities_id;index" json:"amenities_id"`
	Contacted         bool    `gorm:"not null;default:false" json:"contacted"`
	Resolution        *string `json:"resolution"`

	PropertyType    *PropertyType    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	PropertyConfig  *PropertyConfig  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	PropertyAddress *PropertyAddress `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Amenity         *Amenity         `gorm:"foreignKey:AmenitiesID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Query) TableName() string { return "queries" }
