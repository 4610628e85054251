// Package domain contains persistence models for the department service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MaxNestingLevel is the depth ceiling of the department forest. Roots sit
// at level 0; attaching a child under a department already at this level
// is rejected.
const MaxNestingLevel = 6

// Department is an organizational unit in a tree. The parent edge is a
// stable-identifier reference, never an embedded pointer, so subtree
// walks stay cycle-safe.
type Department struct {
	ID                 snowflake.ID  `gorm:"primaryKey" json:"-"`
	UID                string        `gorm:"type:text;not null;uniqueIndex:ux_departments_uid" json:"uid"`
	Name               string        `gorm:"type:text;not null;uniqueIndex:ux_departments_name" json:"name"`
	ParentDepartmentID *snowflake.ID `gorm:"index" json:"-"`
	NestingLevel       int           `gorm:"not null;default:0" json:"nesting_level"`
	CreationDate       time.Time     `gorm:"not null" json:"creation_date"`
	ChangeDate         time.Time     `gorm:"not null" json:"change_date"`
}

// TableName sets the database table name.
func (Department) TableName() string { return "departments" }

// Member links one department and one natural person, recording when the
// person was added. System-managed, never exposed directly.
type Member struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"-"`
	DepartmentID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_department_members,priority:1" json:"department_id"`
	PersonID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_department_members,priority:2" json:"person_id"`
	DateAdded    time.Time    `gorm:"not null" json:"date_added"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "department_members" }

// LegalEntityLink is the department to legal-entity association row.
type LegalEntityLink struct {
	DepartmentID  snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"department_id"`
	LegalEntityID snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"legal_entity_id"`
}

// TableName sets the database table name.
func (LegalEntityLink) TableName() string { return "department_legal_entities" }

// Projection is the externally visible shape of a department at the
// listing surface: the parent is referenced by UID, members are not
// expanded here.
type Projection struct {
	UID              string  `json:"uid"`
	Name             string  `json:"name"`
	ParentDepartment *string `json:"parent_department"`
}
