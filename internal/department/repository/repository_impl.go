package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clientdir/internal/department/domain"
	pkgdb "github.com/smallbiznis/clientdir/pkg/db"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, department *domain.Department) error {
	return db.WithContext(ctx).Create(department).Error
}

func (r *repo) FindByUID(ctx context.Context, db *gorm.DB, uid string) (*domain.Department, error) {
	return r.findByUID(ctx, db, uid)
}

func (r *repo) FindByUIDForUpdate(ctx context.Context, db *gorm.DB, uid string) (*domain.Department, error) {
	return r.findByUID(ctx, pkgdb.ForUpdate(db), uid)
}

func (r *repo) findByUID(ctx context.Context, db *gorm.DB, uid string) (*domain.Department, error) {
	var department domain.Department
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&department).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var departments []*domain.Department
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&departments).Error
	if err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, department *domain.Department) error {
	return db.WithContext(ctx).Save(department).Error
}

func (r *repo) SetNestingLevel(ctx context.Context, db *gorm.DB, ids []snowflake.ID, level int) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.Department{}).
		Where("id IN ?", ids).
		Update("nesting_level", level).Error
}

func (r *repo) ListChildren(ctx context.Context, db *gorm.DB, parentIDs []snowflake.ID) ([]*domain.Department, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var departments []*domain.Department
	err := db.WithContext(ctx).
		Where("parent_department_id IN ?", parentIDs).
		Find(&departments).Error
	if err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *repo) DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&domain.Department{}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*domain.Department, error) {
	var departments []*domain.Department
	stmt := db.WithContext(ctx).Model(&domain.Department{})

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
		Find(&departments).Error
	if err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *repo) InsertMember(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) DeleteMember(ctx context.Context, db *gorm.DB, departmentID, personID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).
		Where("department_id = ? AND person_id = ?", departmentID, personID).
		Delete(&domain.Member{})
	return res.RowsAffected, res.Error
}

func (r *repo) DeleteMembersByDepartmentIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("department_id IN ?", ids).
		Delete(&domain.Member{}).Error
}

func (r *repo) ListMembersByDepartmentIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var members []*domain.Member
	err := db.WithContext(ctx).
		Where("department_id IN ?", ids).
		Order("date_added asc, id asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) InsertLegalEntityLink(ctx context.Context, db *gorm.DB, link *domain.LegalEntityLink) error {
	return db.WithContext(ctx).Create(link).Error
}

func (r *repo) DeleteLegalEntityLink(ctx context.Context, db *gorm.DB, departmentID, legalEntityID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).
		Where("department_id = ? AND legal_entity_id = ?", departmentID, legalEntityID).
		Delete(&domain.LegalEntityLink{})
	return res.RowsAffected, res.Error
}

func (r *repo) DeleteLegalEntityLinksByDepartmentIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("department_id IN ?", ids).
		Delete(&domain.LegalEntityLink{}).Error
}

func (r *repo) ListLegalEntityLinks(ctx context.Context, db *gorm.DB, legalEntityIDs []snowflake.ID) ([]*domain.LegalEntityLink, error) {
	if len(legalEntityIDs) == 0 {
		return nil, nil
	}
	var links []*domain.LegalEntityLink
	err := db.WithContext(ctx).
		Where("legal_entity_id IN ?", legalEntityIDs).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
