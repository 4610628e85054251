package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clientdir/internal/department/domain"
	persondomain "github.com/smallbiznis/clientdir/internal/person/domain"
	"github.com/smallbiznis/clientdir/internal/uid"
	pkgdb "github.com/smallbiznis/clientdir/pkg/db"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	UIDGen     *uid.Generator
	Repo       domain.Repository
	PersonRepo persondomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	uidGen     *uid.Generator
	repo       domain.Repository
	personRepo persondomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("department.service"),
		genID:      p.GenID,
		uidGen:     p.UIDGen,
		repo:       p.Repo,
		personRepo: p.PersonRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateDepartmentRequest) (domain.Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Department{}, domain.ErrInvalidName
	}
	parentUID := strings.TrimSpace(req.ParentUID)
	if parentUID != "" && uid.KindOf(parentUID) != uid.KindDepartment {
		return domain.Department{}, domain.ErrInvalidParent
	}

	var created domain.Department
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		department := domain.Department{
			ID:           s.genID.Generate(),
			UID:          s.uidGen.New(uid.KindDepartment),
			Name:         name,
			CreationDate: now,
			ChangeDate:   now,
		}

		if parentUID != "" {
			parent, err := s.repo.FindByUIDForUpdate(ctx, tx, parentUID)
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrParentNotFound
			}
			if parent.NestingLevel >= domain.MaxNestingLevel {
				return domain.ErrDepthLimitExceeded
			}
			department.ParentDepartmentID = &parent.ID
			department.NestingLevel = parent.NestingLevel + 1
		}

		if err := s.repo.Insert(ctx, tx, &department); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return domain.ErrNameTaken
			}
			return err
		}
		created = department
		return nil
	})
	if err != nil {
		return domain.Department{}, err
	}

	s.log.Info("department created",
		zap.String("uid", created.UID),
		zap.Int("nesting_level", created.NestingLevel),
	)
	return created, nil
}

// Update renames and/or re-parents a department. A re-parent re-derives
// the nesting level of every descendant with a breadth-first walk inside
// the same transaction, so the level invariant holds for the whole
// subtree or the write does not happen at all.
func (s *Service) Update(ctx context.Context, req domain.UpdateDepartmentRequest) (domain.Department, error) {
	if uid.KindOf(req.UID) != uid.KindDepartment {
		return domain.Department{}, domain.ErrInvalidUID
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Department{}, domain.ErrInvalidName
	}
	parentUID := strings.TrimSpace(req.ParentUID)
	if parentUID != "" && uid.KindOf(parentUID) != uid.KindDepartment {
		return domain.Department{}, domain.ErrInvalidParent
	}

	var updated domain.Department
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		department, err := s.repo.FindByUIDForUpdate(ctx, tx, req.UID)
		if err != nil {
			return err
		}
		if department == nil {
			return domain.ErrNotFound
		}

		newLevel := 0
		var newParentID *snowflake.ID
		if parentUID != "" {
			parent, err := s.repo.FindByUIDForUpdate(ctx, tx, parentUID)
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrParentNotFound
			}
			if parent.ID == department.ID {
				return domain.ErrInvalidParent
			}
			descendants, err := s.collectDescendantIDs(ctx, tx, department.ID)
			if err != nil {
				return err
			}
			for _, id := range descendants {
				if id == parent.ID {
					return domain.ErrInvalidParent
				}
			}
			if parent.NestingLevel >= domain.MaxNestingLevel {
				return domain.ErrDepthLimitExceeded
			}
			newParentID = &parent.ID
			newLevel = parent.NestingLevel + 1
		}

		department.Name = name
		department.ParentDepartmentID = newParentID
		department.NestingLevel = newLevel
		department.ChangeDate = time.Now().UTC()

		if err := s.repo.Update(ctx, tx, department); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return domain.ErrNameTaken
			}
			return err
		}

		if err := s.recomputeDescendantLevels(ctx, tx, department.ID, newLevel); err != nil {
			return err
		}

		updated = *department
		return nil
	})
	if err != nil {
		return domain.Department{}, err
	}

	return updated, nil
}

// Delete removes the department and its whole subtree. Membership rows and
// legal-entity links of the deleted departments go with them; the persons
// and legal entities themselves are untouched.
func (s *Service) Delete(ctx context.Context, departmentUID string) error {
	if uid.KindOf(departmentUID) != uid.KindDepartment {
		return domain.ErrInvalidUID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		department, err := s.repo.FindByUIDForUpdate(ctx, tx, departmentUID)
		if err != nil {
			return err
		}
		if department == nil {
			return domain.ErrNotFound
		}

		descendants, err := s.collectDescendantIDs(ctx, tx, department.ID)
		if err != nil {
			return err
		}
		ids := append([]snowflake.ID{department.ID}, descendants...)

		if err := s.repo.DeleteMembersByDepartmentIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.repo.DeleteLegalEntityLinksByDepartmentIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.repo.DeleteByIDs(ctx, tx, ids); err != nil {
			return err
		}

		s.log.Info("department deleted",
			zap.String("uid", departmentUID),
			zap.Int("subtree_size", len(ids)),
		)
		return nil
	})
}

func (s *Service) AddMember(ctx context.Context, departmentUID, personUID string) (domain.Membership, error) {
	if uid.KindOf(departmentUID) != uid.KindDepartment {
		return domain.Membership{}, domain.ErrInvalidUID
	}
	if uid.KindOf(personUID) != uid.KindNaturalPerson {
		return domain.Membership{}, domain.ErrInvalidUID
	}

	var membership domain.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		department, err := s.repo.FindByUID(ctx, tx, departmentUID)
		if err != nil {
			return err
		}
		if department == nil {
			return domain.ErrNotFound
		}
		person, err := s.personRepo.FindByUID(ctx, tx, personUID)
		if err != nil {
			return err
		}
		if person == nil {
			return domain.ErrPersonNotFound
		}

		member := domain.Member{
			ID:           s.genID.Generate(),
			DepartmentID: department.ID,
			PersonID:     person.ID,
			DateAdded:    time.Now().UTC(),
		}
		if err := s.repo.InsertMember(ctx, tx, &member); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return domain.ErrMemberExists
			}
			return err
		}

		membership = domain.Membership{
			DepartmentUID: department.UID,
			PersonUID:     person.UID,
			DateAdded:     member.DateAdded,
		}
		return nil
	})
	if err != nil {
		return domain.Membership{}, err
	}

	return membership, nil
}

func (s *Service) RemoveMember(ctx context.Context, departmentUID, personUID string) error {
	if uid.KindOf(departmentUID) != uid.KindDepartment {
		return domain.ErrInvalidUID
	}
	if uid.KindOf(personUID) != uid.KindNaturalPerson {
		return domain.ErrInvalidUID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		department, err := s.repo.FindByUID(ctx, tx, departmentUID)
		if err != nil {
			return err
		}
		if department == nil {
			return domain.ErrNotFound
		}
		person, err := s.personRepo.FindByUID(ctx, tx, personUID)
		if err != nil {
			return err
		}
		if person == nil {
			return domain.ErrPersonNotFound
		}

		removed, err := s.repo.DeleteMember(ctx, tx, department.ID, person.ID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return domain.ErrMemberNotFound
		}
		return nil
	})
}

func (s *Service) GetByUID(ctx context.Context, departmentUID string) (domain.Department, error) {
	if uid.KindOf(departmentUID) != uid.KindDepartment {
		return domain.Department{}, domain.ErrInvalidUID
	}
	department, err := s.repo.FindByUID(ctx, s.db, departmentUID)
	if err != nil {
		return domain.Department{}, err
	}
	if department == nil {
		return domain.Department{}, domain.ErrNotFound
	}
	return *department, nil
}

func (s *Service) List(ctx context.Context, req domain.ListDepartmentRequest) (domain.ListDepartmentResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListDepartmentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(department *domain.Department) string {
		return pagination.NewCursorToken(int64(department.ID), department.CreationDate)
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	parentUIDs, err := s.resolveParentUIDs(ctx, items)
	if err != nil {
		return domain.ListDepartmentResponse{}, err
	}

	projections := make([]domain.Projection, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projection := domain.Projection{UID: item.UID, Name: item.Name}
		if item.ParentDepartmentID != nil {
			if parentUID, ok := parentUIDs[*item.ParentDepartmentID]; ok {
				projection.ParentDepartment = &parentUID
			}
		}
		projections = append(projections, projection)
	}

	return domain.ListDepartmentResponse{PageInfo: *pageInfo, Departments: projections}, nil
}

// resolveParentUIDs batch-fetches the UIDs of the parents referenced by a
// page of departments.
func (s *Service) resolveParentUIDs(ctx context.Context, items []*domain.Department) (map[snowflake.ID]string, error) {
	seen := map[snowflake.ID]struct{}{}
	parentIDs := make([]snowflake.ID, 0)
	for _, item := range items {
		if item == nil || item.ParentDepartmentID == nil {
			continue
		}
		if _, ok := seen[*item.ParentDepartmentID]; ok {
			continue
		}
		seen[*item.ParentDepartmentID] = struct{}{}
		parentIDs = append(parentIDs, *item.ParentDepartmentID)
	}

	parents, err := s.repo.FindByIDs(ctx, s.db, parentIDs)
	if err != nil {
		return nil, err
	}
	uids := make(map[snowflake.ID]string, len(parents))
	for _, parent := range parents {
		uids[parent.ID] = parent.UID
	}
	return uids, nil
}

// collectDescendantIDs walks the subtree below rootID breadth-first over
// the parent-id index, never through object pointers.
func (s *Service) collectDescendantIDs(ctx context.Context, tx *gorm.DB, rootID snowflake.ID) ([]snowflake.ID, error) {
	var out []snowflake.ID
	frontier := []snowflake.ID{rootID}
	for len(frontier) > 0 {
		children, err := s.repo.ListChildren(ctx, tx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, child := range children {
			out = append(out, child.ID)
			frontier = append(frontier, child.ID)
		}
	}
	return out, nil
}

// recomputeDescendantLevels rewrites nesting levels below rootID one
// generation at a time. If the move would push any descendant past the
// ceiling the transaction is aborted.
func (s *Service) recomputeDescendantLevels(ctx context.Context, tx *gorm.DB, rootID snowflake.ID, rootLevel int) error {
	frontier := []snowflake.ID{rootID}
	level := rootLevel
	for len(frontier) > 0 {
		children, err := s.repo.ListChildren(ctx, tx, frontier)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			return nil
		}
		level++
		if level > domain.MaxNestingLevel {
			return domain.ErrDepthLimitExceeded
		}

		frontier = frontier[:0]
		for _, child := range children {
			frontier = append(frontier, child.ID)
		}
		if err := s.repo.SetNestingLevel(ctx, tx, frontier, level); err != nil {
			return err
		}
	}
	return nil
}
