package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filedepot-idp/internal/service"
)

type userEnv struct {
	accounts *service.AccountService
	svc      *service.UserService
	index    *fakeIndex
	mailer   *fakeMailer
}

func newUserEnv(t *testing.T) *userEnv {
	t.Helper()
	users := newTestRepo(t)
	index := newFakeIndex()
	mailer := &fakeMailer{}
	return &userEnv{
		accounts: service.NewAccountService(users, index, mailer, nil, "http://ui.local", zap.NewNop()),
		svc:      service.NewUserService(users, index, nil, zap.NewNop()),
		index:    index,
		mailer:   mailer,
	}
}

func (e *userEnv) createUser(t *testing.T, email string) *service.UserView {
	t.Helper()
	v, err := e.accounts.CreateUser(context.Background(), service.AccountCreateOptions{
		Email: email, Password: "password1", FullName: "Someone",
	})
	require.NoError(t, err)
	return v
}

func TestUserFind(t *testing.T) {
	env := newUserEnv(t)
	created := env.createUser(t, "a@x.com")

	v, err := env.svc.Find(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, v.ID)
	assert.Equal(t, "a@x.com", v.Email)
}

func TestUserFindNotFound(t *testing.T) {
	env := newUserEnv(t)
	_, err := env.svc.Find(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestUserUpdateFullName(t *testing.T) {
	env := newUserEnv(t)
	created := env.createUser(t, "a@x.com")

	v, err := env.svc.UpdateFullName(context.Background(), created.ID, "New Name")
	require.NoError(t, err)
	assert.Equal(t, "New Name", v.FullName)
	assert.NotNil(t, v.UpdateTime)

	doc, ok := env.index.get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "New Name", doc.FullName)
}

func TestUserDeleteWrongPassword(t *testing.T) {
	env := newUserEnv(t)
	created := env.createUser(t, "a@x.com")

	err := env.svc.Delete(context.Background(), created.ID, "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.True(t, env.index.has(created.ID))
}

func TestUserDelete(t *testing.T) {
	env := newUserEnv(t)
	created := env.createUser(t, "a@x.com")

	require.NoError(t, env.svc.Delete(context.Background(), created.ID, "password1"))

	_, err := env.svc.Find(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.False(t, env.index.has(created.ID))
}

func TestUserAdminDelete(t *testing.T) {
	env := newUserEnv(t)
	created := env.createUser(t, "a@x.com")

	require.NoError(t, env.svc.AdminDelete(context.Background(), created.ID))
	assert.False(t, env.index.has(created.ID))

	err := env.svc.AdminDelete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestUserList(t *testing.T) {
	env := newUserEnv(t)
	env.createUser(t, "a@x.com")
	env.createUser(t, "b@x.com")
	env.createUser(t, "c@y.com")

	out, err := env.svc.List(context.Background(), "", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, out.Total)
	assert.Len(t, out.Items, 2)

	filtered, err := env.svc.List(context.Background(), "@x.com", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, filtered.Total)
}
