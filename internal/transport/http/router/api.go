package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"filedepot-idp/internal/core/auth"
	"filedepot-idp/internal/service"
	httpez "filedepot-idp/internal/transport/http/ez"
	mdw "filedepot-idp/internal/transport/http/middleware"
)

type Services struct {
	Accounts *service.AccountService
	Users    *service.UserService
	Tokens   *service.TokenService
}

func NewAPIEngine(l *zap.Logger, svcs Services, jwter *auth.JWTer) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		cors.Default(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(3<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	mountAccountActions(v1, svcs.Accounts)
	mountTokenActions(v1, svcs.Tokens)

	authed := v1.Group("/user")
	authed.Use(mdw.AuthJWT(jwter, ""))
	mountUserActions(authed, svcs.Users)

	return r
}

func mountAccountActions(g *gin.RouterGroup, accounts *service.AccountService) {
	ez := httpez.New(g)

	type createIn struct {
		Email    string  `json:"email"    binding:"required,email"`
		Password string  `json:"password" binding:"required,min=8"`
		FullName string  `json:"fullName" binding:"required,max=255"`
		Picture  *string `json:"picture"  binding:"omitempty,max=255"`
	}
	httpez.RegisterAction(ez, httpez.Action[createIn, *service.UserView]{
		Method: http.MethodPost,
		Path:   "/accounts",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *createIn) (*service.UserView, error) {
			return accounts.CreateUser(c.Request.Context(), service.AccountCreateOptions{
				Email:    in.Email,
				Password: in.Password,
				FullName: in.FullName,
				Picture:  in.Picture,
			})
		},
	})

	type confirmIn struct {
		Token string `json:"token" binding:"required"`
	}
	httpez.RegisterAction(ez, httpez.Action[confirmIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/accounts/confirm_email",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *confirmIn) (gin.H, error) {
			if err := accounts.ConfirmEmail(c.Request.Context(), in.Token); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})

	type sendResetIn struct {
		Email string `json:"email" binding:"required,email"`
	}
	httpez.RegisterAction(ez, httpez.Action[sendResetIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/accounts/send_reset_password_email",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *sendResetIn) (gin.H, error) {
			if err := accounts.SendResetPasswordEmail(c.Request.Context(), in.Email); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})

	type resetIn struct {
		Token       string `json:"token"       binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=8"`
	}
	httpez.RegisterAction(ez, httpez.Action[resetIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/accounts/reset_password",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *resetIn) (gin.H, error) {
			if err := accounts.ResetPassword(c.Request.Context(), in.Token, in.NewPassword); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})
}

func mountTokenActions(g *gin.RouterGroup, tokens *service.TokenService) {
	ez := httpez.New(g)

	type tokenIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	httpez.RegisterAction(ez, httpez.Action[tokenIn, *service.TokenView]{
		Method: http.MethodPost,
		Path:   "/token",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *tokenIn) (*service.TokenView, error) {
			return tokens.Exchange(c.Request.Context(), in.Email, in.Password)
		},
	})
}

func mountUserActions(g *gin.RouterGroup, users *service.UserService) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[struct{}, *service.UserView]{
		Method: http.MethodGet,
		Path:   "",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.UserView, error) {
			uid := c.GetString("userId")
			if uid == "" {
				return nil, service.NewUnauthorizedError("unauthorized")
			}
			return users.Find(c.Request.Context(), uid)
		},
	})

	type updateNameIn struct {
		FullName string `json:"fullName" binding:"required,max=255"`
	}
	httpez.RegisterAction(ez, httpez.Action[updateNameIn, *service.UserView]{
		Method: http.MethodPost,
		Path:   "/update_full_name",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *updateNameIn) (*service.UserView, error) {
			uid := c.GetString("userId")
			if uid == "" {
				return nil, service.NewUnauthorizedError("unauthorized")
			}
			return users.UpdateFullName(c.Request.Context(), uid, in.FullName)
		},
	})

	type deleteIn struct {
		Password string `json:"password" binding:"required"`
	}
	httpez.RegisterAction(ez, httpez.Action[deleteIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/delete",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *deleteIn) (gin.H, error) {
			uid := c.GetString("userId")
			if uid == "" {
				return nil, service.NewUnauthorizedError("unauthorized")
			}
			if err := users.Delete(c.Request.Context(), uid, in.Password); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})
}
