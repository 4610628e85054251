package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clientdir/internal/person/domain"
	"github.com/smallbiznis/clientdir/internal/schema"
	"github.com/smallbiznis/clientdir/internal/uid"
	pkgdb "github.com/smallbiznis/clientdir/pkg/db"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	UIDGen *uid.Generator
	Repo   domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	uidGen *uid.Generator
	repo   domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("person.service"),
		genID:  p.GenID,
		uidGen: p.UIDGen,
		repo:   p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePersonRequest) (domain.NaturalPerson, error) {
	req = normalizeCreate(req)
	if err := validateFields(req.PhoneNumber, req.AdditionalPhoneNumbers, req.Email, req.TimeZone, req.SocialNetworks); err != nil {
		return domain.NaturalPerson{}, err
	}
	if err := validateIdentity(req.Name, req.Surname, req.Patronymic); err != nil {
		return domain.NaturalPerson{}, err
	}
	if err := validateEnums(req.Status, req.ClientType, req.Gender); err != nil {
		return domain.NaturalPerson{}, err
	}

	now := time.Now().UTC()
	person := domain.NaturalPerson{
		ID:                     s.genID.Generate(),
		UID:                    s.uidGen.New(uid.KindNaturalPerson),
		PhoneNumber:            req.PhoneNumber,
		AdditionalPhoneNumbers: datatypes.NewJSONSlice(req.AdditionalPhoneNumbers),
		Name:                   req.Name,
		Surname:                req.Surname,
		Patronymic:             req.Patronymic,
		CreationDate:           now,
		ChangeDate:             now,
		StatusChangeDate:       now,
		Status:                 req.Status,
		ClientType:             req.ClientType,
		Email:                  datatypes.NewJSONSlice(req.Email),
		Gender:                 req.Gender,
		TimeZone:               req.TimeZone,
		SocialNetworks:         datatypes.JSONMap(req.SocialNetworks),
	}

	if err := s.repo.Insert(ctx, s.db, &person); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.NaturalPerson{}, domain.ErrPhoneNumberTaken
		}
		return domain.NaturalPerson{}, err
	}

	s.log.Info("person created", zap.String("uid", person.UID))
	return person, nil
}

// Update replaces the mutable fields of a person. The persisted row is
// locked and re-read inside the transaction so the status baseline the
// bookkeeping compares against is the value a concurrent writer cannot
// move underneath us.
func (s *Service) Update(ctx context.Context, req domain.UpdatePersonRequest) (domain.NaturalPerson, error) {
	if uid.KindOf(req.UID) != uid.KindNaturalPerson {
		return domain.NaturalPerson{}, domain.ErrInvalidUID
	}
	req = normalizeUpdate(req)
	if err := validateFields(req.PhoneNumber, req.AdditionalPhoneNumbers, req.Email, req.TimeZone, req.SocialNetworks); err != nil {
		return domain.NaturalPerson{}, err
	}
	if err := validateIdentity(req.Name, req.Surname, req.Patronymic); err != nil {
		return domain.NaturalPerson{}, err
	}
	if err := validateEnums(req.Status, req.ClientType, req.Gender); err != nil {
		return domain.NaturalPerson{}, err
	}

	var updated domain.NaturalPerson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		person, err := s.repo.FindByUIDForUpdate(ctx, tx, req.UID)
		if err != nil {
			return err
		}
		if person == nil {
			return domain.ErrNotFound
		}

		now := time.Now().UTC()
		baseline := person.Status

		person.PhoneNumber = req.PhoneNumber
		person.AdditionalPhoneNumbers = datatypes.NewJSONSlice(req.AdditionalPhoneNumbers)
		person.Name = req.Name
		person.Surname = req.Surname
		person.Patronymic = req.Patronymic
		person.Status = req.Status
		person.ClientType = req.ClientType
		person.Email = datatypes.NewJSONSlice(req.Email)
		person.Gender = req.Gender
		person.TimeZone = req.TimeZone
		person.SocialNetworks = datatypes.JSONMap(req.SocialNetworks)
		person.ChangeDate = now
		if person.Status != baseline {
			person.StatusChangeDate = now
		}

		if err := s.repo.Update(ctx, tx, person); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return domain.ErrPhoneNumberTaken
			}
			return err
		}
		updated = *person
		return nil
	})
	if err != nil {
		return domain.NaturalPerson{}, err
	}

	return updated, nil
}

func (s *Service) SetStatus(ctx context.Context, personUID string, status domain.Status) (domain.NaturalPerson, error) {
	if uid.KindOf(personUID) != uid.KindNaturalPerson {
		return domain.NaturalPerson{}, domain.ErrInvalidUID
	}
	if !status.Valid() {
		return domain.NaturalPerson{}, domain.ErrInvalidStatus
	}

	var updated domain.NaturalPerson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		person, err := s.repo.FindByUIDForUpdate(ctx, tx, personUID)
		if err != nil {
			return err
		}
		if person == nil {
			return domain.ErrNotFound
		}

		now := time.Now().UTC()
		if person.Status != status {
			person.Status = status
			person.StatusChangeDate = now
		}
		person.ChangeDate = now

		if err := s.repo.Update(ctx, tx, person); err != nil {
			return err
		}
		updated = *person
		return nil
	})
	if err != nil {
		return domain.NaturalPerson{}, err
	}

	return updated, nil
}

func (s *Service) GetByUID(ctx context.Context, personUID string) (domain.NaturalPerson, error) {
	if uid.KindOf(personUID) != uid.KindNaturalPerson {
		return domain.NaturalPerson{}, domain.ErrInvalidUID
	}
	person, err := s.repo.FindByUID(ctx, s.db, personUID)
	if err != nil {
		return domain.NaturalPerson{}, err
	}
	if person == nil {
		return domain.NaturalPerson{}, domain.ErrNotFound
	}
	return *person, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPersonRequest) (domain.ListPersonResponse, error) {
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
		return domain.ListPersonResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(person *domain.NaturalPerson) string {
		return pagination.NewCursorToken(int64(person.ID), person.CreationDate)
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	persons := make([]domain.NaturalPerson, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		persons = append(persons, *item)
	}

	return domain.ListPersonResponse{PageInfo: *pageInfo, Persons: persons}, nil
}

func normalizeCreate(req domain.CreatePersonRequest) domain.CreatePersonRequest {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.Patronymic = strings.TrimSpace(req.Patronymic)
	if req.Status == "" {
		req.Status = domain.StatusActive
	}
	if req.ClientType == "" {
		req.ClientType = domain.ClientTypePrimary
	}
	if req.Gender == "" {
		req.Gender = domain.GenderUnknown
	}
	if strings.TrimSpace(req.TimeZone) == "" {
		req.TimeZone = domain.DefaultTimeZone
	}
	if req.AdditionalPhoneNumbers == nil {
		req.AdditionalPhoneNumbers = []string{}
	}
	if req.Email == nil {
		req.Email = []string{}
	}
	if req.SocialNetworks == nil {
		req.SocialNetworks = map[string]any{}
	}
	return req
}

func normalizeUpdate(req domain.UpdatePersonRequest) domain.UpdatePersonRequest {
	create := normalizeCreate(domain.CreatePersonRequest{
		PhoneNumber:            req.PhoneNumber,
		AdditionalPhoneNumbers: req.AdditionalPhoneNumbers,
		Name:                   req.Name,
		Surname:                req.Surname,
		Patronymic:             req.Patronymic,
		Status:                 req.Status,
		ClientType:             req.ClientType,
		Email:                  req.Email,
		Gender:                 req.Gender,
		TimeZone:               req.TimeZone,
		SocialNetworks:         req.SocialNetworks,
	})
	return domain.UpdatePersonRequest{
		UID:                    strings.TrimSpace(req.UID),
		PhoneNumber:            create.PhoneNumber,
		AdditionalPhoneNumbers: create.AdditionalPhoneNumbers,
		Name:                   create.Name,
		Surname:                create.Surname,
		Patronymic:             create.Patronymic,
		Status:                 create.Status,
		ClientType:             create.ClientType,
		Email:                  create.Email,
		Gender:                 create.Gender,
		TimeZone:               create.TimeZone,
		SocialNetworks:         create.SocialNetworks,
	}
}

func validateFields(phone string, additional, emails []string, timeZone string, socialNetworks map[string]any) error {
	if err := schema.ValidatePhoneNumber(phone); err != nil {
		return err
	}
	if err := schema.ValidatePhoneNumbers(additional); err != nil {
		return err
	}
	if err := schema.ValidateEmails(emails); err != nil {
		return err
	}
	if err := schema.ValidateTimeZone(timeZone); err != nil {
		return err
	}
	return schema.ValidateSocialNetworks(socialNetworks)
}

func validateIdentity(name, surname, patronymic string) error {
	if name == "" {
		return domain.ErrInvalidName
	}
	if surname == "" {
		return domain.ErrInvalidSurname
	}
	if patronymic == "" {
		return domain.ErrInvalidPatronymic
	}
	return nil
}

func validateEnums(status domain.Status, clientType domain.ClientType, gender domain.Gender) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	if !clientType.Valid() {
		return domain.ErrInvalidClientType
	}
	if !gender.Valid() {
		return domain.ErrInvalidGender
	}
	return nil
}
