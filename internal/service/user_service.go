package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"filedepot-idp/internal/core/cache"
	"filedepot-idp/internal/domain"
	"filedepot-idp/internal/search"
	"filedepot-idp/pkg/utils"
)

const userCacheTTL = 5 * time.Minute

func userCacheKey(id string) string { return "user:" + id }

// UserView is the public projection of a user record. Every field derives
// from a named field of the store record; hashes and tokens never leave the
// service layer.
type UserView struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	FullName         string     `json:"fullName"`
	Picture          *string    `json:"picture,omitempty"`
	IsEmailConfirmed bool       `json:"isEmailConfirmed"`
	CreateTime       time.Time  `json:"createTime"`
	UpdateTime       *time.Time `json:"updateTime,omitempty"`
}

func NewUserView(u *domain.User) UserView {
	return UserView{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FullName:         u.FullName,
		Picture:          u.Picture,
		IsEmailConfirmed: u.IsEmailConfirmed,
		CreateTime:       u.CreateTime,
		UpdateTime:       u.UpdateTime,
	}
}

type UserList struct {
	Items []UserView `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
}

// UserService serves user views and the self-service mutations that sit
// outside the account lifecycle workflow.
type UserService struct {
	users domain.UserRepository
	index search.UserIndex
	cache *cache.Cache
	log   *zap.Logger
}

func NewUserService(users domain.UserRepository, index search.UserIndex, c *cache.Cache, log *zap.Logger) *UserService {
	return &UserService{users: users, index: index, cache: c, log: log}
}

// Find returns the view for id, served through the redis cache when one is
// configured.
func (s *UserService) Find(ctx context.Context, id string) (*UserView, error) {
	v, err := cache.GetOrLoadJSON(s.cache, ctx, userCacheKey(id), userCacheTTL, func(ctx context.Context) (*UserView, error) {
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, NewNotFoundError("user not found")
		}
		view := NewUserView(u)
		return &view, nil
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, NewInternalServerError(err)
	}
	return v, nil
}

func (s *UserService) UpdateFullName(ctx context.Context, id, fullName string) (*UserView, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, NewInternalServerError(err)
	}
	if u == nil {
		return nil, NewNotFoundError("user not found")
	}
	u.FullName = fullName
	if err := s.users.Update(ctx, u); err != nil {
		return nil, NewInternalServerError(err)
	}
	s.cache.Invalidate(ctx, userCacheKey(id))
	if err := s.index.UpdateDocuments(ctx, []search.UserDocument{search.NewUserDocument(u)}); err != nil {
		return nil, NewInternalServerError(err)
	}
	v := NewUserView(u)
	return &v, nil
}

// Delete removes the caller's own account after verifying the password, then
// drops the index document and the cache entry.
func (s *UserService) Delete(ctx context.Context, id, password string) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return NewInternalServerError(err)
	}
	if u == nil {
		return NewNotFoundError("user not found")
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return NewUnauthorizedError("invalid password")
	}
	return s.remove(ctx, u)
}

// AdminDelete removes an account without a password check. Back-office only.
func (s *UserService) AdminDelete(ctx context.Context, id string) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return NewInternalServerError(err)
	}
	if u == nil {
		return NewNotFoundError("user not found")
	}
	return s.remove(ctx, u)
}

func (s *UserService) remove(ctx context.Context, u *domain.User) error {
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return NewInternalServerError(err)
	}
	s.cache.Invalidate(ctx, userCacheKey(u.ID))
	if err := s.index.DeleteDocuments(ctx, []string{u.ID}); err != nil {
		return NewInternalServerError(err)
	}
	s.log.Info("user removed", zap.String("user", u.ID))
	return nil
}

func (s *UserService) List(ctx context.Context, query string, page, size int) (*UserList, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	users, total, err := s.users.List(ctx, query, (page-1)*size, size)
	if err != nil {
		return nil, NewInternalServerError(err)
	}
	out := &UserList{Items: make([]UserView, 0, len(users)), Total: total, Page: page, Size: size}
	for i := range users {
		out.Items = append(out.Items, NewUserView(&users[i]))
	}
	return out, nil
}
