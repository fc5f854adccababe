package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"filedepot-idp/internal/core/cache"
	"filedepot-idp/internal/domain"
	"filedepot-idp/internal/mail"
	"filedepot-idp/internal/repo"
	"filedepot-idp/internal/search"
	"filedepot-idp/pkg/utils"
)

const (
	mailTemplateEmailConfirmation = "email-confirmation"
	mailTemplateResetPassword     = "reset-password"
)

type AccountCreateOptions struct {
	Email    string
	Password string
	FullName string
	Picture  *string
}

// AccountService orchestrates the account lifecycle: creation, email
// confirmation and password recovery. The credential store is the source of
// truth; the search index is a best-effort write-through mirror; mail
// failures during creation roll the whole account back.
type AccountService struct {
	users  domain.UserRepository
	index  search.UserIndex
	mailer mail.Mailer
	cache  *cache.Cache
	uiURL  string
	log    *zap.Logger
}

func NewAccountService(users domain.UserRepository, index search.UserIndex, mailer mail.Mailer, c *cache.Cache, uiURL string, log *zap.Logger) *AccountService {
	return &AccountService{
		users:  users,
		index:  index,
		mailer: mailer,
		cache:  c,
		uiURL:  uiURL,
		log:    log,
	}
}

// CreateUser registers a new account and sends the confirmation email.
// The insert, the index write and the mail send span three systems with no
// shared transaction; any failure past the insert compensates by deleting
// the record and its index document, then surfaces an internal error
// wrapping the cause. That includes a mail-only failure: the account is
// discarded even though store and index were already consistent.
func (s *AccountService) CreateUser(ctx context.Context, opts AccountCreateOptions) (*UserView, error) {
	id := utils.NewID()
	email := strings.ToLower(opts.Email)

	ok, err := s.users.IsUsernameAvailable(ctx, email)
	if err != nil {
		return nil, NewInternalServerError(err)
	}
	if !ok {
		return nil, NewUsernameUnavailableError()
	}

	token := utils.NewToken()
	u := &domain.User{
		ID:                     id,
		Username:               email,
		Email:                  email,
		FullName:               opts.FullName,
		Picture:                opts.Picture,
		PasswordHash:           utils.HashPassword(opts.Password),
		EmailConfirmationToken: &token,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		// the availability check races with concurrent inserts; the unique
		// index is the real gate
		if repo.IsDuplicateKey(err) {
			return nil, NewUsernameUnavailableError()
		}
		return nil, NewInternalServerError(err)
	}

	if err := s.index.AddDocuments(ctx, []search.UserDocument{search.NewUserDocument(u)}); err != nil {
		return nil, s.rollbackCreate(ctx, id, err)
	}
	if err := s.mailer.Send(mailTemplateEmailConfirmation, u.Email, map[string]string{
		"UI_URL": s.uiURL,
		"TOKEN":  token,
	}); err != nil {
		return nil, s.rollbackCreate(ctx, id, err)
	}

	v := NewUserView(u)
	return &v, nil
}

// rollbackCreate compensates a failed creation: delete the record, then its
// index document. Best-effort, attempted once, not verified; a rollback
// failure propagates and masks the original cause.
func (s *AccountService) rollbackCreate(ctx context.Context, id string, cause error) error {
	s.log.Warn("rolling back account creation",
		zap.String("user", id),
		zap.Error(cause),
	)
	if err := s.users.Delete(ctx, id); err != nil {
		s.log.Error("account creation rollback failed", zap.String("user", id), zap.Error(err))
		return NewInternalServerError(err)
	}
	if err := s.index.DeleteDocuments(ctx, []string{id}); err != nil {
		s.log.Error("account creation deindex failed", zap.String("user", id), zap.Error(err))
		return NewInternalServerError(err)
	}
	return NewInternalServerError(cause)
}

// ConfirmEmail consumes a single-use confirmation token: the flag is set and
// the token cleared in one store update, then the index document is
// refreshed. An index failure leaves the mirror stale; there is no
// compensation.
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) error {
	u, err := s.users.FindByEmailConfirmationToken(ctx, token)
	if err != nil {
		return NewInternalServerError(err)
	}
	if u == nil {
		return NewNotFoundError("email confirmation token not found")
	}
	u.IsEmailConfirmed = true
	u.EmailConfirmationToken = nil
	if err := s.users.Update(ctx, u); err != nil {
		return NewInternalServerError(err)
	}
	s.cache.Invalidate(ctx, userCacheKey(u.ID))
	if err := s.index.UpdateDocuments(ctx, []search.UserDocument{search.NewUserDocument(u)}); err != nil {
		return NewInternalServerError(err)
	}
	return nil
}

// SendResetPasswordEmail issues a reset token and mails it. An unknown email
// succeeds silently so callers cannot probe which addresses are registered.
// If the mail send fails the token is cleared again, via a fresh lookup
// rather than the in-hand record.
func (s *AccountService) SendResetPasswordEmail(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil || u == nil {
		return nil
	}
	token := utils.NewToken()
	u.ResetPasswordToken = &token
	if err := s.users.Update(ctx, u); err != nil {
		return nil
	}
	s.cache.Invalidate(ctx, userCacheKey(u.ID))

	if err := s.mailer.Send(mailTemplateResetPassword, u.Email, map[string]string{
		"UI_URL": s.uiURL,
		"TOKEN":  token,
	}); err != nil {
		s.log.Warn("reset password mail failed, clearing token",
			zap.String("user", u.ID),
			zap.Error(err),
		)
		refetched, ferr := s.users.FindByEmail(ctx, email)
		if ferr != nil {
			return NewInternalServerError(ferr)
		}
		if refetched != nil {
			refetched.ResetPasswordToken = nil
			if uerr := s.users.Update(ctx, refetched); uerr != nil {
				return NewInternalServerError(uerr)
			}
		}
		return NewInternalServerError(err)
	}
	return nil
}

// ResetPassword replaces the password hash for the account holding the reset
// token. The token itself is left in place; requesting a new reset is what
// rotates it.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.users.FindByResetPasswordToken(ctx, token)
	if err != nil {
		return NewInternalServerError(err)
	}
	if u == nil {
		return NewNotFoundError("reset password token not found")
	}
	u.PasswordHash = utils.HashPassword(newPassword)
	if err := s.users.Update(ctx, u); err != nil {
		return NewInternalServerError(err)
	}
	s.cache.Invalidate(ctx, userCacheKey(u.ID))
	return nil
}
