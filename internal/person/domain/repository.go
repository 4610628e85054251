package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, person *NaturalPerson) error
	FindByUID(ctx context.Context, db *gorm.DB, uid string) (*NaturalPerson, error)
	// FindByUIDForUpdate locks the row for the duration of the enclosing
	// transaction so the status baseline cannot drift under a concurrent
	// writer.
	FindByUIDForUpdate(ctx context.Context, db *gorm.DB, uid string) (*NaturalPerson, error)
	Update(ctx context.Context, db *gorm.DB, person *NaturalPerson) error
	List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*NaturalPerson, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*NaturalPerson, error)
}
