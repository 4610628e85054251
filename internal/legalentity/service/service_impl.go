package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	departmentdomain "github.com/smallbiznis/clientdir/internal/department/domain"
	"github.com/smallbiznis/clientdir/internal/legalentity/domain"
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
	DeptRepo   departmentdomain.Repository
	PersonRepo persondomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	uidGen     *uid.Generator
	repo       domain.Repository
	deptRepo   departmentdomain.Repository
	personRepo persondomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("legalentity.service"),
		genID:      p.GenID,
		uidGen:     p.UIDGen,
		repo:       p.Repo,
		deptRepo:   p.DeptRepo,
		personRepo: p.PersonRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLegalEntityRequest) (domain.LegalEntity, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.LegalEntity{}, domain.ErrInvalidName
	}
	if req.INN <= 0 {
		return domain.LegalEntity{}, domain.ErrInvalidINN
	}
	if req.KPP <= 0 {
		return domain.LegalEntity{}, domain.ErrInvalidKPP
	}

	now := time.Now().UTC()
	entity := domain.LegalEntity{
		ID:           s.genID.Generate(),
		UID:          s.uidGen.New(uid.KindLegalEntity),
		CreationDate: now,
		ChangeDate:   now,
		Name:         name,
		Abbreviation: strings.TrimSpace(req.Abbreviation),
		INN:          req.INN,
		KPP:          req.KPP,
	}

	if err := s.repo.Insert(ctx, s.db, &entity); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.LegalEntity{}, domain.ErrINNTaken
		}
		return domain.LegalEntity{}, err
	}

	s.log.Info("legal entity created", zap.String("uid", entity.UID))
	return entity, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateLegalEntityRequest) (domain.LegalEntity, error) {
	if uid.KindOf(req.UID) != uid.KindLegalEntity {
		return domain.LegalEntity{}, domain.ErrInvalidUID
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.LegalEntity{}, domain.ErrInvalidName
	}
	if req.INN <= 0 {
		return domain.LegalEntity{}, domain.ErrInvalidINN
	}
	if req.KPP <= 0 {
		return domain.LegalEntity{}, domain.ErrInvalidKPP
	}

	var updated domain.LegalEntity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entity, err := s.repo.FindByUIDForUpdate(ctx, tx, req.UID)
		if err != nil {
			return err
		}
		if entity == nil {
			return domain.ErrNotFound
		}

		entity.Name = name
		entity.Abbreviation = strings.TrimSpace(req.Abbreviation)
		entity.INN = req.INN
		entity.KPP = req.KPP
		entity.ChangeDate = time.Now().UTC()

		if err := s.repo.Update(ctx, tx, entity); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return domain.ErrINNTaken
			}
			return err
		}
		updated = *entity
		return nil
	})
	if err != nil {
		return domain.LegalEntity{}, err
	}

	return updated, nil
}

func (s *Service) GetByUID(ctx context.Context, entityUID string) (domain.LegalEntity, error) {
	if uid.KindOf(entityUID) != uid.KindLegalEntity {
		return domain.LegalEntity{}, domain.ErrInvalidUID
	}
	entity, err := s.repo.FindByUID(ctx, s.db, entityUID)
	if err != nil {
		return domain.LegalEntity{}, err
	}
	if entity == nil {
		return domain.LegalEntity{}, domain.ErrNotFound
	}
	return *entity, nil
}

// List assembles legal-entity projections with nested departments and
// their members. The whole page is served by five queries regardless of
// how many entities, departments or members it spans.
func (s *Service) List(ctx context.Context, req domain.ListLegalEntityRequest) (domain.ListLegalEntityResponse, error) {
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
		return domain.ListLegalEntityResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(entity *domain.LegalEntity) string {
		return pagination.NewCursorToken(int64(entity.ID), entity.CreationDate)
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	projections, err := s.project(ctx, items)
	if err != nil {
		return domain.ListLegalEntityResponse{}, err
	}

	return domain.ListLegalEntityResponse{PageInfo: *pageInfo, LegalEntities: projections}, nil
}

func (s *Service) AddDepartment(ctx context.Context, entityUID, departmentUID string) error {
	entityID, departmentID, err := s.resolvePair(ctx, entityUID, departmentUID)
	if err != nil {
		return err
	}

	link := departmentdomain.LegalEntityLink{
		DepartmentID:  departmentID,
		LegalEntityID: entityID,
	}
	if err := s.deptRepo.InsertLegalEntityLink(ctx, s.db, &link); err != nil {
		// Linking twice is a no-op, matching m2m add semantics.
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) RemoveDepartment(ctx context.Context, entityUID, departmentUID string) error {
	entityID, departmentID, err := s.resolvePair(ctx, entityUID, departmentUID)
	if err != nil {
		return err
	}

	_, err = s.deptRepo.DeleteLegalEntityLink(ctx, s.db, departmentID, entityID)
	return err
}

func (s *Service) resolvePair(ctx context.Context, entityUID, departmentUID string) (snowflake.ID, snowflake.ID, error) {
	if uid.KindOf(entityUID) != uid.KindLegalEntity {
		return 0, 0, domain.ErrInvalidUID
	}
	if uid.KindOf(departmentUID) != uid.KindDepartment {
		return 0, 0, domain.ErrInvalidUID
	}

	entity, err := s.repo.FindByUID(ctx, s.db, entityUID)
	if err != nil {
		return 0, 0, err
	}
	if entity == nil {
		return 0, 0, domain.ErrNotFound
	}
	department, err := s.deptRepo.FindByUID(ctx, s.db, departmentUID)
	if err != nil {
		return 0, 0, err
	}
	if department == nil {
		return 0, 0, domain.ErrDepartmentNotFound
	}
	return entity.ID, department.ID, nil
}

func (s *Service) project(ctx context.Context, items []*domain.LegalEntity) ([]domain.Projection, error) {
	entityIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		if item != nil {
			entityIDs = append(entityIDs, item.ID)
		}
	}

	links, err := s.deptRepo.ListLegalEntityLinks(ctx, s.db, entityIDs)
	if err != nil {
		return nil, err
	}

	departmentIDs := make([]snowflake.ID, 0, len(links))
	seenDept := map[snowflake.ID]struct{}{}
	for _, link := range links {
		if _, ok := seenDept[link.DepartmentID]; ok {
			continue
		}
		seenDept[link.DepartmentID] = struct{}{}
		departmentIDs = append(departmentIDs, link.DepartmentID)
	}

	departments, err := s.deptRepo.FindByIDs(ctx, s.db, departmentIDs)
	if err != nil {
		return nil, err
	}
	departmentsByID := make(map[snowflake.ID]*departmentdomain.Department, len(departments))
	parentIDs := make([]snowflake.ID, 0)
	for _, department := range departments {
		departmentsByID[department.ID] = department
		if department.ParentDepartmentID != nil {
			if _, ok := departmentsByID[*department.ParentDepartmentID]; !ok {
				parentIDs = append(parentIDs, *department.ParentDepartmentID)
			}
		}
	}

	// Parents may sit outside the linked set; fetch the missing ones so
	// parent_department can still be referenced by UID.
	parentUIDs := make(map[snowflake.ID]string)
	for _, department := range departments {
		parentUIDs[department.ID] = department.UID
	}
	if len(parentIDs) > 0 {
		parents, err := s.deptRepo.FindByIDs(ctx, s.db, parentIDs)
		if err != nil {
			return nil, err
		}
		for _, parent := range parents {
			parentUIDs[parent.ID] = parent.UID
		}
	}

	members, err := s.deptRepo.ListMembersByDepartmentIDs(ctx, s.db, departmentIDs)
	if err != nil {
		return nil, err
	}

	personIDs := make([]snowflake.ID, 0, len(members))
	seenPerson := map[snowflake.ID]struct{}{}
	for _, member := range members {
		if _, ok := seenPerson[member.PersonID]; ok {
			continue
		}
		seenPerson[member.PersonID] = struct{}{}
		personIDs = append(personIDs, member.PersonID)
	}

	persons, err := s.personRepo.FindByIDs(ctx, s.db, personIDs)
	if err != nil {
		return nil, err
	}
	personsByID := make(map[snowflake.ID]*persondomain.NaturalPerson, len(persons))
	for _, person := range persons {
		personsByID[person.ID] = person
	}

	membersByDepartment := make(map[snowflake.ID][]persondomain.NaturalPerson)
	for _, member := range members {
		person, ok := personsByID[member.PersonID]
		if !ok {
			continue
		}
		membersByDepartment[member.DepartmentID] = append(membersByDepartment[member.DepartmentID], *person)
	}

	linksByEntity := make(map[snowflake.ID][]snowflake.ID)
	for _, link := range links {
		linksByEntity[link.LegalEntityID] = append(linksByEntity[link.LegalEntityID], link.DepartmentID)
	}

	projections := make([]domain.Projection, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projection := domain.Projection{
			UID:          item.UID,
			CreationDate: item.CreationDate,
			ChangeDate:   item.ChangeDate,
			Name:         item.Name,
			Abbreviation: item.Abbreviation,
			INN:          item.INN,
			KPP:          item.KPP,
			Departments:  []domain.DepartmentProjection{},
		}
		for _, departmentID := range linksByEntity[item.ID] {
			department, ok := departmentsByID[departmentID]
			if !ok {
				continue
			}
			deptProjection := domain.DepartmentProjection{
				UID:            department.UID,
				Name:           department.Name,
				NaturalPersons: membersByDepartment[department.ID],
			}
			if deptProjection.NaturalPersons == nil {
				deptProjection.NaturalPersons = []persondomain.NaturalPerson{}
			}
			if department.ParentDepartmentID != nil {
				if parentUID, ok := parentUIDs[*department.ParentDepartmentID]; ok {
					deptProjection.ParentDepartment = &parentUID
				}
			}
			projection.Departments = append(projection.Departments, deptProjection)
		}
		projections = append(projections, projection)
	}

	return projections, nil
}
