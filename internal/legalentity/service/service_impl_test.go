package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	departmentdomain "github.com/smallbiznis/clientdir/internal/department/domain"
	departmentrepository "github.com/smallbiznis/clientdir/internal/department/repository"
	departmentservice "github.com/smallbiznis/clientdir/internal/department/service"
	"github.com/smallbiznis/clientdir/internal/legalentity/domain"
	"github.com/smallbiznis/clientdir/internal/legalentity/repository"
	persondomain "github.com/smallbiznis/clientdir/internal/person/domain"
	personrepository "github.com/smallbiznis/clientdir/internal/person/repository"
	"github.com/smallbiznis/clientdir/internal/uid"
)

type fixture struct {
	svc     domain.Service
	deptSvc departmentdomain.Service
	db      *gorm.DB
	node    *snowflake.Node
	uidGen  *uid.Generator
	persons persondomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&persondomain.NaturalPerson{},
		&domain.LegalEntity{},
		&departmentdomain.Department{},
		&departmentdomain.Member{},
		&departmentdomain.LegalEntityLink{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	uidGen := uid.NewGenerator()
	personRepo := personrepository.Provide()
	deptRepo := departmentrepository.Provide()

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		UIDGen:     uidGen,
		Repo:       repository.Provide(),
		DeptRepo:   deptRepo,
		PersonRepo: personRepo,
	})
	deptSvc := departmentservice.New(departmentservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		UIDGen:     uidGen,
		Repo:       deptRepo,
		PersonRepo: personRepo,
	})

	return &fixture{svc: svc, deptSvc: deptSvc, db: db, node: node, uidGen: uidGen, persons: personRepo}
}

func (f *fixture) createPerson(t *testing.T, phone string) persondomain.NaturalPerson {
	t.Helper()
	person := persondomain.NaturalPerson{
		ID:          f.node.Generate(),
		UID:         f.uidGen.New(uid.KindNaturalPerson),
		PhoneNumber: phone,
		Name:        "Ivan",
		Surname:     "Ivanov",
		Patronymic:  "Ivanovich",
		Status:      persondomain.StatusActive,
		ClientType:  persondomain.ClientTypePrimary,
		Gender:      persondomain.GenderUnknown,
		TimeZone:    persondomain.DefaultTimeZone,
	}
	require.NoError(t, f.persons.Insert(context.Background(), f.db, &person))
	return person
}

func TestCreate_AssignsIdentifierAndValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entity, err := f.svc.Create(ctx, domain.CreateLegalEntityRequest{
		Name:         "Roga i Kopyta LLC",
		Abbreviation: "RiK",
		INN:          7707083893,
		KPP:          770701001,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(entity.UID, "le_"))
	assert.Equal(t, entity.CreationDate, entity.ChangeDate)

	_, err = f.svc.Create(ctx, domain.CreateLegalEntityRequest{Name: "", INN: 1, KPP: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.Create(ctx, domain.CreateLegalEntityRequest{Name: "x", INN: 0, KPP: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidINN)

	_, err = f.svc.Create(ctx, domain.CreateLegalEntityRequest{Name: "x", INN: 2, KPP: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidKPP)

	// Same INN again.
	_, err = f.svc.Create(ctx, domain.CreateLegalEntityRequest{Name: "Other", INN: 7707083893, KPP: 1})
	assert.ErrorIs(t, err, domain.ErrINNTaken)
}

func TestAddDepartment_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entity, err := f.svc.Create(ctx, domain.CreateLegalEntityRequest{Name: "RiK", INN: 1, KPP: 1})
	require.NoError(t, err)
	dep, err := f.deptSvc.Create(ctx, departmentdomain.CreateDepartmentRequest{Name: "Sales"})
	require.NoError(t, err)

	require.NoError(t, f.svc.AddDepartment(ctx, entity.UID, dep.UID))
	require.NoError(t, f.svc.AddDepartment(ctx, entity.UID, dep.UID))

	var count int64
	require.NoError(t, f.db.Model(&departmentdomain.LegalEntityLink{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	require.NoError(t, f.svc.RemoveDepartment(ctx, entity.UID, dep.UID))
	require.NoError(t, f.db.Model(&departmentdomain.LegalEntityLink{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, f.svc.AddDepartment(ctx, entity.UID, "dp_01JDOESNOTEXIST0000000000"), domain.ErrDepartmentNotFound)
	assert.ErrorIs(t, f.svc.AddDepartment(ctx, "le_01JDOESNOTEXIST0000000000", dep.UID), domain.ErrNotFound)
}

func TestList_ProjectsDepartmentsAndMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entity, err := f.svc.Create(ctx, domain.CreateLegalEntityRequest{Name: "RiK", INN: 1, KPP: 1})
	require.NoError(t, err)

	sales, err := f.deptSvc.Create(ctx, departmentdomain.CreateDepartmentRequest{Name: "Sales"})
	require.NoError(t, err)
	east, err := f.deptSvc.Create(ctx, departmentdomain.CreateDepartmentRequest{Name: "Sales East", ParentUID: sales.UID})
	require.NoError(t, err)

	require.NoError(t, f.svc.AddDepartment(ctx, entity.UID, sales.UID))
	require.NoError(t, f.svc.AddDepartment(ctx, entity.UID, east.UID))

	alice := f.createPerson(t, "+79012314481")
	bob := f.createPerson(t, "+79012314482")
	carol := f.createPerson(t, "+79012314483")
	for _, p := range []persondomain.NaturalPerson{alice, bob, carol} {
		_, err := f.deptSvc.AddMember(ctx, east.UID, p.UID)
		require.NoError(t, err)
	}

	resp, err := f.svc.List(ctx, domain.ListLegalEntityRequest{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, resp.LegalEntities, 1)

	projection := resp.LegalEntities[0]
	assert.Equal(t, entity.UID, projection.UID)
	require.Len(t, projection.Departments, 2)

	byUID := map[string]domain.DepartmentProjection{}
	for _, d := range projection.Departments {
		byUID[d.UID] = d
	}

	// Members land under the department they were added to, nowhere else.
	assert.Len(t, byUID[east.UID].NaturalPersons, 3)
	assert.Empty(t, byUID[sales.UID].NaturalPersons)

	require.NotNil(t, byUID[east.UID].ParentDepartment)
	assert.Equal(t, sales.UID, *byUID[east.UID].ParentDepartment)
	assert.Nil(t, byUID[sales.UID].ParentDepartment)
}

func TestList_ParentOutsideLinkedSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entity, err := f.svc.Create(ctx, domain.CreateLegalEntityRequest{Name: "RiK", INN: 1, KPP: 1})
	require.NoError(t, err)

	root, err := f.deptSvc.Create(ctx, departmentdomain.CreateDepartmentRequest{Name: "Root"})
	require.NoError(t, err)
	child, err := f.deptSvc.Create(ctx, departmentdomain.CreateDepartmentRequest{Name: "Child", ParentUID: root.UID})
	require.NoError(t, err)

	// Only the child is linked; its parent must still resolve by UID.
	require.NoError(t, f.svc.AddDepartment(ctx, entity.UID, child.UID))

	resp, err := f.svc.List(ctx, domain.ListLegalEntityRequest{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, resp.LegalEntities, 1)
	require.Len(t, resp.LegalEntities[0].Departments, 1)

	got := resp.LegalEntities[0].Departments[0]
	assert.Equal(t, child.UID, got.UID)
	require.NotNil(t, got.ParentDepartment)
	assert.Equal(t, root.UID, *got.ParentDepartment)
}
