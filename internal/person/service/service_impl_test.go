package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/clientdir/internal/person/domain"
	"github.com/smallbiznis/clientdir/internal/person/repository"
	"github.com/smallbiznis/clientdir/internal/schema"
	"github.com/smallbiznis/clientdir/internal/uid"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.NaturalPerson{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		UIDGen: uid.NewGenerator(),
		Repo:   repository.Provide(),
	})
}

func validCreateRequest(phone string) domain.CreatePersonRequest {
	return domain.CreatePersonRequest{
		PhoneNumber: phone,
		Name:        "Ivan",
		Surname:     "Ivanov",
		Patronymic:  "Ivanovich",
	}
}

func TestCreate_AssignsIdentifierAndDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	person, err := svc.Create(ctx, validCreateRequest("+79012314483"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(person.UID, "np_"), "uid %q should carry the person prefix", person.UID)
	assert.NotZero(t, person.ID)
	assert.Equal(t, domain.StatusActive, person.Status)
	assert.Equal(t, domain.ClientTypePrimary, person.ClientType)
	assert.Equal(t, domain.GenderUnknown, person.Gender)
	assert.Equal(t, domain.DefaultTimeZone, person.TimeZone)
	assert.Equal(t, person.CreationDate, person.ChangeDate)
	assert.Equal(t, person.CreationDate, person.StatusChangeDate)
}

func TestCreate_RejectsMalformedFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCreateRequest("89012314483"))
	assert.True(t, errors.Is(err, schema.ErrViolation))

	req := validCreateRequest("+79012314483")
	req.Surname = "  "
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidSurname)

	req = validCreateRequest("+79012314484")
	req.Status = "archived"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestCreate_DuplicatePhoneNumber(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCreateRequest("+79012314483"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validCreateRequest("+79012314483"))
	assert.ErrorIs(t, err, domain.ErrPhoneNumberTaken)
}

func TestUpdate_KeepsIdentifierAndStatusBaseline(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest("+79012314483"))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	updated, err := svc.Update(ctx, domain.UpdatePersonRequest{
		UID:         created.UID,
		PhoneNumber: "+79012314999",
		Name:        "Ivan",
		Surname:     "Petrov",
		Patronymic:  "Ivanovich",
		Status:      domain.StatusActive,
		ClientType:  domain.ClientTypePrimary,
		Gender:      domain.GenderMale,
		TimeZone:    "Europe/Moscow",
	})
	require.NoError(t, err)

	assert.Equal(t, created.UID, updated.UID)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Petrov", updated.Surname)
	assert.True(t, updated.ChangeDate.After(created.ChangeDate))
	// Status did not change, so its marker stays at the baseline.
	assert.True(t, updated.StatusChangeDate.Equal(created.StatusChangeDate))
}

func TestUpdate_StatusChangeMovesMarker(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest("+79012314483"))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	updated, err := svc.SetStatus(ctx, created.UID, domain.StatusNotActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotActive, updated.Status)
	assert.True(t, updated.StatusChangeDate.After(created.StatusChangeDate))

	// Setting the same status again is a no-op for the marker.
	again, err := svc.SetStatus(ctx, created.UID, domain.StatusNotActive)
	require.NoError(t, err)
	assert.True(t, again.StatusChangeDate.Equal(updated.StatusChangeDate))
	assert.True(t, again.ChangeDate.After(updated.ChangeDate) || again.ChangeDate.Equal(updated.ChangeDate))
}

func TestUpdate_UnknownOrForeignUID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, "np_01JDOESNOTEXIST0000000000", domain.StatusActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.SetStatus(ctx, "dp_01JDOESNOTEXIST0000000000", domain.StatusActive)
	assert.ErrorIs(t, err, domain.ErrInvalidUID)
}

func TestList_CursorPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, validCreateRequest(fmt.Sprintf("+7901231448%d", i)))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	first, err := svc.List(ctx, domain.ListPersonRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Persons, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, domain.ListPersonRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Persons, 1)
	assert.False(t, second.HasMore)

	// Newest first, no overlap between pages.
	seen := map[string]bool{}
	for _, p := range append(first.Persons, second.Persons...) {
		assert.False(t, seen[p.UID])
		seen[p.UID] = true
	}
}
