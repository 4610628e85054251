package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entity *LegalEntity) error
	FindByUID(ctx context.Context, db *gorm.DB, uid string) (*LegalEntity, error)
	FindByUIDForUpdate(ctx context.Context, db *gorm.DB, uid string) (*LegalEntity, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*LegalEntity, error)
	Update(ctx context.Context, db *gorm.DB, entity *LegalEntity) error
	List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*LegalEntity, error)
}
