package repo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"filedepot-idp/internal/domain"
	"filedepot-idp/internal/repo"
	"filedepot-idp/pkg/utils"
)

func newRepo(t *testing.T) *repo.UserRepo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return repo.NewUserRepo(db)
}

func newUser(email string) *domain.User {
	token := utils.NewToken()
	return &domain.User{
		ID:                     utils.NewID(),
		Username:               email,
		Email:                  email,
		FullName:               "Someone",
		PasswordHash:           "x",
		EmailConfirmationToken: &token,
	}
}

func TestInsertAndLookups(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	u := newUser("a@x.com")
	require.NoError(t, r.Insert(ctx, u))
	assert.False(t, u.CreateTime.IsZero())

	byID, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)

	byEmail, err := r.FindByEmail(ctx, "A@X.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	byToken, err := r.FindByEmailConfirmationToken(ctx, *u.EmailConfirmationToken)
	require.NoError(t, err)
	require.NotNil(t, byToken)
	assert.Equal(t, u.ID, byToken.ID)

	missing, err := r.FindByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIsUsernameAvailable(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	ok, err := r.IsUsernameAvailable(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Insert(ctx, newUser("a@x.com")))

	ok, err = r.IsUsernameAvailable(ctx, "A@X.COM")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateClearsToken(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	u := newUser("a@x.com")
	require.NoError(t, r.Insert(ctx, u))

	u.IsEmailConfirmed = true
	u.EmailConfirmationToken = nil
	require.NoError(t, r.Update(ctx, u))
	require.NotNil(t, u.UpdateTime)

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmailConfirmed)
	assert.Nil(t, got.EmailConfirmationToken)
	assert.NotNil(t, got.UpdateTime)
}

func TestDelete(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	u := newUser("a@x.com")
	require.NoError(t, r.Insert(ctx, u))
	require.NoError(t, r.Delete(ctx, u.ID))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting an absent record is not an error
	require.NoError(t, r.Delete(ctx, u.ID))
}

func TestDuplicateInsert(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newUser("a@x.com")))
	err := r.Insert(ctx, newUser("a@x.com"))
	require.Error(t, err)
	assert.True(t, repo.IsDuplicateKey(err))
}

func TestIsDuplicateKeyOtherErrors(t *testing.T) {
	assert.False(t, repo.IsDuplicateKey(nil))
	assert.False(t, repo.IsDuplicateKey(context.Canceled))
}

func TestList(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	for _, e := range []string{"a@x.com", "b@x.com", "c@y.com"} {
		require.NoError(t, r.Insert(ctx, newUser(e)))
	}

	all, total, err := r.List(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	page, total, err := r.List(ctx, "", 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)

	filtered, total, err := r.List(ctx, "@x.com", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, filtered, 2)
}
