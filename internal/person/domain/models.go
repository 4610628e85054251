// Package domain contains persistence models for the natural-person service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the activity state of a client.
type Status string

const (
	StatusActive    Status = "active"
	StatusNotActive Status = "not_active"
)

// Valid reports whether the status is one of the recognized values.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusNotActive
}

// ClientType classifies how the client was acquired.
type ClientType string

const (
	ClientTypePrimary  ClientType = "primary"
	ClientTypeRepeated ClientType = "repeated"
	ClientTypeExternal ClientType = "external"
	ClientTypeIndirect ClientType = "indirect"
)

// Valid reports whether the client type is one of the recognized values.
func (t ClientType) Valid() bool {
	switch t {
	case ClientTypePrimary, ClientTypeRepeated, ClientTypeExternal, ClientTypeIndirect:
		return true
	default:
		return false
	}
}

// Gender of a client.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Valid reports whether the gender is one of the recognized values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnknown
}

// DefaultTimeZone is applied when a client carries no explicit zone.
const DefaultTimeZone = "Europe/Moscow"

// NaturalPerson represents an individual client. The internal ID never
// leaves the storage layer; external consumers see only the UID.
type NaturalPerson struct {
	ID                     snowflake.ID                `gorm:"primaryKey" json:"-"`
	UID                    string                      `gorm:"type:text;not null;uniqueIndex:ux_natural_persons_uid" json:"uid"`
	PhoneNumber            string                      `gorm:"type:varchar(16);not null;uniqueIndex:ux_natural_persons_phone_number" json:"phone_number"`
	AdditionalPhoneNumbers datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"additional_phone_numbers"`
	Name                   string                      `gorm:"type:text;not null" json:"name"`
	Surname                string                      `gorm:"type:text;not null" json:"surname"`
	Patronymic             string                      `gorm:"type:text;not null" json:"patronymic"`
	CreationDate           time.Time                   `gorm:"not null" json:"creation_date"`
	ChangeDate             time.Time                   `gorm:"not null" json:"change_date"`
	StatusChangeDate       time.Time                   `gorm:"not null" json:"status_change_date"`
	Status                 Status                      `gorm:"type:text;not null;default:'active'" json:"status"`
	ClientType             ClientType                  `gorm:"type:text;not null;default:'primary'" json:"client_type"`
	Email                  datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"email"`
	Gender                 Gender                      `gorm:"type:text;not null;default:'unknown'" json:"gender"`
	TimeZone               string                      `gorm:"type:varchar(64);not null;default:'Europe/Moscow'" json:"time_zone"`
	SocialNetworks         datatypes.JSONMap           `gorm:"type:jsonb" json:"social_networks"`
}

// TableName sets the database table name.
func (NaturalPerson) TableName() string { return "natural_persons" }
