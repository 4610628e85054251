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

	"github.com/smallbiznis/clientdir/internal/department/domain"
	"github.com/smallbiznis/clientdir/internal/department/repository"
	persondomain "github.com/smallbiznis/clientdir/internal/person/domain"
	personrepository "github.com/smallbiznis/clientdir/internal/person/repository"
	"github.com/smallbiznis/clientdir/internal/uid"
)

type fixture struct {
	svc        domain.Service
	db         *gorm.DB
	personRepo persondomain.Repository
	node       *snowflake.Node
	uidGen     *uid.Generator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&persondomain.NaturalPerson{},
		&domain.Department{},
		&domain.Member{},
		&domain.LegalEntityLink{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	personRepo := personrepository.Provide()
	uidGen := uid.NewGenerator()

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		UIDGen:     uidGen,
		Repo:       repository.Provide(),
		PersonRepo: personRepo,
	})

	return &fixture{svc: svc, db: db, personRepo: personRepo, node: node, uidGen: uidGen}
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
	require.NoError(t, f.personRepo.Insert(context.Background(), f.db, &person))
	return person
}

// createChain creates a parent-child chain of n departments and returns it
// root first.
func (f *fixture) createChain(t *testing.T, prefix string, n int) []domain.Department {
	t.Helper()
	ctx := context.Background()
	out := make([]domain.Department, 0, n)
	parentUID := ""
	for i := 0; i < n; i++ {
		dep, err := f.svc.Create(ctx, domain.CreateDepartmentRequest{
			Name:      fmt.Sprintf("%s-%d", prefix, i),
			ParentUID: parentUID,
		})
		require.NoError(t, err)
		out = append(out, dep)
		parentUID = dep.UID
	}
	return out
}

func TestCreate_RootAndChildLevels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.svc.Create(ctx, domain.CreateDepartmentRequest{Name: "Sales"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(root.UID, "dp_"))
	assert.Equal(t, 0, root.NestingLevel)
	assert.Nil(t, root.ParentDepartmentID)

	child, err := f.svc.Create(ctx, domain.CreateDepartmentRequest{Name: "Sales East", ParentUID: root.UID})
	require.NoError(t, err)
	assert.Equal(t, 1, child.NestingLevel)
	require.NotNil(t, child.ParentDepartmentID)
	assert.Equal(t, root.ID, *child.ParentDepartmentID)
}

func TestCreate_DepthCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chain := f.createChain(t, "chain", domain.MaxNestingLevel+1)
	deepest := chain[len(chain)-1]
	assert.Equal(t, domain.MaxNestingLevel, deepest.NestingLevel)

	_, err := f.svc.Create(ctx, domain.CreateDepartmentRequest{
		Name:      "too-deep",
		ParentUID: deepest.UID,
	})
	assert.ErrorIs(t, err, domain.ErrDepthLimitExceeded)
}

func TestCreate_DuplicateNameAndMissingParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateDepartmentRequest{Name: "Sales"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, domain.CreateDepartmentRequest{Name: "Sales"})
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	_, err = f.svc.Create(ctx, domain.CreateDepartmentRequest{
		Name:      "Orphan",
		ParentUID: "dp_01JDOESNOTEXIST0000000000",
	})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)
}

func TestUpdate_ReparentRecomputesSubtreeLevels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// a -> b -> c, plus a free-standing root r.
	chain := f.createChain(t, "abc", 3)
	r, err := f.svc.Create(ctx, domain.CreateDepartmentRequest{Name: "r"})
	require.NoError(t, err)

	// Move b under r: b and its subtree shift up one level.
	_, err = f.svc.Update(ctx, domain.UpdateDepartmentRequest{
		UID:       chain[1].UID,
		Name:      chain[1].Name,
		ParentUID: r.UID,
	})
	require.NoError(t, err)

	b, err := f.svc.GetByUID(ctx, chain[1].UID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.NestingLevel)

	c, err := f.svc.GetByUID(ctx, chain[2].UID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.NestingLevel)
}

func TestUpdate_ReparentToRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chain := f.createChain(t, "chain", 2)

	updated, err := f.svc.Update(ctx, domain.UpdateDepartmentRequest{
		UID:  chain[1].UID,
		Name: chain[1].Name,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.NestingLevel)
	assert.Nil(t, updated.ParentDepartmentID)
}

func TestUpdate_RejectsCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chain := f.createChain(t, "chain", 3)

	// A department cannot become its own parent.
	_, err := f.svc.Update(ctx, domain.UpdateDepartmentRequest{
		UID:       chain[0].UID,
		Name:      chain[0].Name,
		ParentUID: chain[0].UID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	// Nor may it move under one of its own descendants.
	_, err = f.svc.Update(ctx, domain.UpdateDepartmentRequest{
		UID:       chain[0].UID,
		Name:      chain[0].Name,
		ParentUID: chain[2].UID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)
}

func TestUpdate_ReparentPastDepthCeilingAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Deep chain occupying levels 0..6 and a shallow pair x -> y.
	chain := f.createChain(t, "deep", domain.MaxNestingLevel+1)
	pair := f.createChain(t, "pair", 2)

	// Moving x under level-5 would push y to level 7.
	_, err := f.svc.Update(ctx, domain.UpdateDepartmentRequest{
		UID:       pair[0].UID,
		Name:      pair[0].Name,
		ParentUID: chain[5].UID,
	})
	assert.ErrorIs(t, err, domain.ErrDepthLimitExceeded)

	// The aborted move left the pair untouched.
	x, err := f.svc.GetByUID(ctx, pair[0].UID)
	require.NoError(t, err)
	assert.Equal(t, 0, x.NestingLevel)
	y, err := f.svc.GetByUID(ctx, pair[1].UID)
	require.NoError(t, err)
	assert.Equal(t, 1, y.NestingLevel)
}

func TestDelete_CascadesSubtreeAndMemberships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chain := f.createChain(t, "chain", 3)
	person := f.createPerson(t, "+79012314483")

	_, err := f.svc.AddMember(ctx, chain[2].UID, person.UID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, chain[0].UID))

	for _, dep := range chain {
		_, err := f.svc.GetByUID(ctx, dep.UID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}

	var memberCount int64
	require.NoError(t, f.db.Model(&domain.Member{}).Count(&memberCount).Error)
	assert.Zero(t, memberCount)

	// The person itself survives the cascade.
	survivor, err := f.personRepo.FindByUID(ctx, f.db, person.UID)
	require.NoError(t, err)
	require.NotNil(t, survivor)
}

func TestMembership_AddAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dep, err := f.svc.Create(ctx, domain.CreateDepartmentRequest{Name: "Sales"})
	require.NoError(t, err)
	person := f.createPerson(t, "+79012314483")

	membership, err := f.svc.AddMember(ctx, dep.UID, person.UID)
	require.NoError(t, err)
	assert.Equal(t, dep.UID, membership.DepartmentUID)
	assert.Equal(t, person.UID, membership.PersonUID)
	assert.False(t, membership.DateAdded.IsZero())

	_, err = f.svc.AddMember(ctx, dep.UID, person.UID)
	assert.ErrorIs(t, err, domain.ErrMemberExists)

	require.NoError(t, f.svc.RemoveMember(ctx, dep.UID, person.UID))
	assert.ErrorIs(t, f.svc.RemoveMember(ctx, dep.UID, person.UID), domain.ErrMemberNotFound)

	_, err = f.svc.AddMember(ctx, dep.UID, "le_01JDOESNOTEXIST0000000000")
	assert.ErrorIs(t, err, domain.ErrInvalidUID)
}

func TestList_ResolvesParentUIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chain := f.createChain(t, "chain", 2)

	resp, err := f.svc.List(ctx, domain.ListDepartmentRequest{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, resp.Departments, 2)

	byUID := map[string]domain.Projection{}
	for _, p := range resp.Departments {
		byUID[p.UID] = p
	}
	assert.Nil(t, byUID[chain[0].UID].ParentDepartment)
	require.NotNil(t, byUID[chain[1].UID].ParentDepartment)
	assert.Equal(t, chain[0].UID, *byUID[chain[1].UID].ParentDepartment)
}
