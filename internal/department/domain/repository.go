package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, department *Department) error
	FindByUID(ctx context.Context, db *gorm.DB, uid string) (*Department, error)
	FindByUIDForUpdate(ctx context.Context, db *gorm.DB, uid string) (*Department, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*Department, error)
	Update(ctx context.Context, db *gorm.DB, department *Department) error
	// SetNestingLevel rewrites the derived level for a set of departments
	// in one statement, used by the subtree recompute.
	SetNestingLevel(ctx context.Context, db *gorm.DB, ids []snowflake.ID, level int) error
	ListChildren(ctx context.Context, db *gorm.DB, parentIDs []snowflake.ID) ([]*Department, error)
	DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*Department, error)

	InsertMember(ctx context.Context, db *gorm.DB, member *Member) error
	DeleteMember(ctx context.Context, db *gorm.DB, departmentID, personID snowflake.ID) (int64, error)
	DeleteMembersByDepartmentIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
	ListMembersByDepartmentIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*Member, error)

	InsertLegalEntityLink(ctx context.Context, db *gorm.DB, link *LegalEntityLink) error
	DeleteLegalEntityLink(ctx context.Context, db *gorm.DB, departmentID, legalEntityID snowflake.ID) (int64, error)
	DeleteLegalEntityLinksByDepartmentIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
	ListLegalEntityLinks(ctx context.Context, db *gorm.DB, legalEntityIDs []snowflake.ID) ([]*LegalEntityLink, error)
}
