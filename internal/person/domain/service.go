package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/clientdir/pkg/db/pagination"
)

type CreatePersonRequest struct {
	PhoneNumber            string
	AdditionalPhoneNumbers []string
	Name                   string
	Surname                string
	Patronymic             string
	Status                 Status
	ClientType             ClientType
	Email                  []string
	Gender                 Gender
	TimeZone               string
	SocialNetworks         map[string]any
}

// UpdatePersonRequest replaces the mutable fields of the person identified
// by UID. All mutations go through the service update path so the
// status-change bookkeeping always sees the persisted baseline; bulk
// writes that bypass it would silently skip that bookkeeping.
type UpdatePersonRequest struct {
	UID                    string
	PhoneNumber            string
	AdditionalPhoneNumbers []string
	Name                   string
	Surname                string
	Patronymic             string
	Status                 Status
	ClientType             ClientType
	Email                  []string
	Gender                 Gender
	TimeZone               string
	SocialNetworks         map[string]any
}

type ListPersonRequest struct {
	PageToken string
	PageSize  int
}

type ListPersonResponse struct {
	pagination.PageInfo
	Persons []NaturalPerson `json:"persons"`
}

type Service interface {
	Create(context.Context, CreatePersonRequest) (NaturalPerson, error)
	Update(context.Context, UpdatePersonRequest) (NaturalPerson, error)
	SetStatus(ctx context.Context, uid string, status Status) (NaturalPerson, error)
	GetByUID(ctx context.Context, uid string) (NaturalPerson, error)
	List(context.Context, ListPersonRequest) (ListPersonResponse, error)
}

var (
	ErrNotFound          = errors.New("person_not_found")
	ErrPhoneNumberTaken  = errors.New("phone_number_taken")
	ErrInvalidUID        = errors.New("invalid_uid")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidSurname    = errors.New("invalid_surname")
	ErrInvalidPatronymic = errors.New("invalid_patronymic")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidClientType = errors.New("invalid_client_type")
	ErrInvalidGender     = errors.New("invalid_gender")
)
