// Package domain contains persistence models for the legal-entity service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	persondomain "github.com/smallbiznis/clientdir/internal/person/domain"
)

// LegalEntity represents an organization. INN and KPP are opaque tax
// identification codes; INN is unique across the directory.
type LegalEntity struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"-"`
	UID          string       `gorm:"type:text;not null;uniqueIndex:ux_legal_entities_uid" json:"uid"`
	CreationDate time.Time    `gorm:"not null" json:"creation_date"`
	ChangeDate   time.Time    `gorm:"not null" json:"change_date"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Abbreviation string       `gorm:"type:text;not null" json:"abbreviation"`
	INN          int64        `gorm:"column:inn;not null;uniqueIndex:ux_legal_entities_inn" json:"inn"`
	KPP          int64        `gorm:"column:kpp;not null" json:"kpp"`
}

// TableName sets the database table name.
func (LegalEntity) TableName() string { return "legal_entities" }

// DepartmentProjection is the externally visible shape of a department
// nested under a legal entity, members included.
type DepartmentProjection struct {
	UID              string                       `json:"uid"`
	Name             string                       `json:"name"`
	ParentDepartment *string                      `json:"parent_department"`
	NaturalPersons   []persondomain.NaturalPerson `json:"natural_persons"`
}

// Projection is the externally visible shape of a legal entity with its
// departments expanded.
type Projection struct {
	UID          string                 `json:"uid"`
	CreationDate time.Time              `json:"creation_date"`
	ChangeDate   time.Time              `json:"change_date"`
	Name         string                 `json:"name"`
	Abbreviation string                 `json:"abbreviation"`
	INN          int64                  `json:"inn"`
	KPP          int64                  `json:"kpp"`
	Departments  []DepartmentProjection `json:"departments"`
}
