package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clientdir/internal/legalentity/domain"
	pkgdb "github.com/smallbiznis/clientdir/pkg/db"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entity *domain.LegalEntity) error {
	return db.WithContext(ctx).Create(entity).Error
}

func (r *repo) FindByUID(ctx context.Context, db *gorm.DB, uid string) (*domain.LegalEntity, error) {
	return r.findByUID(ctx, db, uid)
}

func (r *repo) FindByUIDForUpdate(ctx context.Context, db *gorm.DB, uid string) (*domain.LegalEntity, error) {
	return r.findByUID(ctx, pkgdb.ForUpdate(db), uid)
}

func (r *repo) findByUID(ctx context.Context, db *gorm.DB, uid string) (*domain.LegalEntity, error) {
	var entity domain.LegalEntity
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.LegalEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []*domain.LegalEntity
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, entity *domain.LegalEntity) error {
	return db.WithContext(ctx).Save(entity).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*domain.LegalEntity, error) {
	var entities []*domain.LegalEntity
	stmt := db.WithContext(ctx).Model(&domain.LegalEntity{})

	if page.PageToken != "" {
		createdAt, id, err := pagination.ParseCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("creation_date < ? OR (creation_date = ? AND id < ?)", createdAt, createdAt, id)
	}
	if page.PageSize > 0 {
		stmt = stmt.Limit(page.PageSize + 1)
	}

	err := stmt.
		Order("creation_date desc, id desc").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return entities, nil
}
