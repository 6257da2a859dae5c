package models

type PropertyType struct {
	Base
	Name          string  `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Description   *string `json:"description"`
	CreatedByUser uint    `gorm:"not null;index" json:"created_by_user"`
	Creator       *User   `gorm:"foreignKey:CreatedByUser;constraint:OnDelete:RESTRICT" json:"-"`
}

func (PropertyType) TableName() string { return "property_types" }

type PropertyConfig struct {
	Base
	Name          string  `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Description   *string `json:"description"`
	CreatedByUser uint    `gorm:"not null;index" json:"created_by_user"`
	Creator       *User   `gorm:"foreignKey:CreatedByUser;constraint:OnDelete:RESTRICT" json:"-"`
}

func (PropertyConfig) TableName() string { return "property_config" }

type PropertyAddress struct {
	Base
	HouseNo       *string `json:"house_no"`
	BuildingName  *string `json:"building_name"`
	Street        *string `json:"street"`
	City          string  `gorm:"not null" json:"city"`
	State         string  `gorm:"not null" json:"state"`
	Country       string  `gorm:"not null" json:"country"`
	ZipCode       string  `gorm:"size:6;not null" json:"zip_code"`
	CreatedByUser *uint   `gorm:"index" json:"created_by_user"`
	Creator       *User   `gorm:"foreignKey:CreatedByUser;constraint:OnDelete:RESTRICT" json:"-"`
}

func (PropertyAddress) TableName() string { return "property_address" }

type Amenity struct {
	Base
	Name          string  `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Description   *string `json:"description"`
	CreatedByUser uint    `gorm:"not null;index" json:"created_by_user"`
	Creator       *User   `gorm:"foreignKey:CreatedByUser;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Amenity) TableName() string { return "amenities" }
