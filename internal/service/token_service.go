package service

import (
	"context"

	"filedepot-idp/internal/core/auth"
	"filedepot-idp/internal/domain"
	"filedepot-idp/pkg/utils"
)

type TokenView struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenService implements the password grant: verify credentials against the
// store, issue a signed access token.
type TokenService struct {
	users domain.UserRepository
	jwter *auth.JWTer
}

func NewTokenService(users domain.UserRepository, jwter *auth.JWTer) *TokenService {
	return &TokenService{users: users, jwter: jwter}
}

// Exchange trades email+password for an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *TokenService) Exchange(ctx context.Context, email, password string) (*TokenView, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalServerError(err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	tok, err := s.jwter.Issue(u.ID, "user")
	if err != nil {
		return nil, NewInternalServerError(err)
	}
	return &TokenView{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwter.TTL.Seconds()),
	}, nil
}
