package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/clientdir/pkg/db/pagination"
)

type CreateDepartmentRequest struct {
	Name string
	// ParentUID references the parent department; empty creates a root.
	ParentUID string
}

type UpdateDepartmentRequest struct {
	UID       string
	Name      string
	ParentUID string
}

type ListDepartmentRequest struct {
	PageToken string
	PageSize  int
}

type ListDepartmentResponse struct {
	pagination.PageInfo
	Departments []Projection `json:"departments"`
}

// Membership is the externally visible record of an AddMember call.
type Membership struct {
	DepartmentUID string    `json:"department_uid"`
	PersonUID     string    `json:"person_uid"`
	DateAdded     time.Time `json:"date_added"`
}

type Service interface {
	Create(context.Context, CreateDepartmentRequest) (Department, error)
	// Update renames and/or re-parents a department. Re-parenting
	// re-derives nesting levels for the whole subtree in the same
	// transaction.
	Update(context.Context, UpdateDepartmentRequest) (Department, error)
	// Delete removes the department and every descendant transitively,
	// along with their membership and legal-entity link rows.
	Delete(ctx context.Context, uid string) error
	AddMember(ctx context.Context, departmentUID, personUID string) (Membership, error)
	RemoveMember(ctx context.Context, departmentUID, personUID string) error
	GetByUID(ctx context.Context, uid string) (Department, error)
	List(context.Context, ListDepartmentRequest) (ListDepartmentResponse, error)
}

var (
	ErrNotFound           = errors.New("department_not_found")
	ErrParentNotFound     = errors.New("parent_department_not_found")
	ErrPersonNotFound     = errors.New("member_person_not_found")
	ErrMemberNotFound     = errors.New("member_not_found")
	ErrNameTaken          = errors.New("department_name_taken")
	ErrMemberExists       = errors.New("member_exists")
	ErrDepthLimitExceeded = errors.New("depth_limit_exceeded")
	ErrInvalidParent      = errors.New("invalid_parent")
	ErrInvalidUID         = errors.New("invalid_uid")
	ErrInvalidName        = errors.New("invalid_name")
)
