package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/clientdir/pkg/db/pagination"
)

type CreateLegalEntityRequest struct {
	Name         string
	Abbreviation string
	INN          int64
	KPP          int64
}

type UpdateLegalEntityRequest struct {
	UID          string
	Name         string
	Abbreviation string
	INN          int64
	KPP          int64
}

type ListLegalEntityRequest struct {
	PageToken string
	PageSize  int
}

// ListLegalEntityResponse carries projections with nested departments and
// members, assembled in a bounded number of queries.
type ListLegalEntityResponse struct {
	pagination.PageInfo
	LegalEntities []Projection `json:"legal_entities"`
}

type Service interface {
	Create(context.Context, CreateLegalEntityRequest) (LegalEntity, error)
	Update(context.Context, UpdateLegalEntityRequest) (LegalEntity, error)
	GetByUID(ctx context.Context, uid string) (LegalEntity, error)
	List(context.Context, ListLegalEntityRequest) (ListLegalEntityResponse, error)
	AddDepartment(ctx context.Context, entityUID, departmentUID string) error
	RemoveDepartment(ctx context.Context, entityUID, departmentUID string) error
}

var (
	ErrNotFound           = errors.New("legal_entity_not_found")
	ErrDepartmentNotFound = errors.New("department_not_found")
	ErrINNTaken           = errors.New("inn_taken")
	ErrInvalidUID         = errors.New("invalid_uid")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidINN         = errors.New("invalid_inn")
	ErrInvalidKPP         = errors.New("invalid_kpp")
)
