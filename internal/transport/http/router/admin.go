package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedepot-idp/internal/core/auth"
	"filedepot-idp/internal/service"
	httpez "filedepot-idp/internal/transport/http/ez"
	mdw "filedepot-idp/internal/transport/http/middleware"
)

func NewAdminEngine(l *zap.Logger, users *service.UserService, jwter *auth.JWTer) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		cors.Default(),
		ginzap.Ginzap(l, time.RFC3339, true),
		ginzap.RecoveryWithZap(l, true),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, "admin"))
	mountAdminActions(admin, users)

	return r
}

func mountAdminActions(g *gin.RouterGroup, users *service.UserService) {
	ez := httpez.New(g)

	type listQ struct {
		Page int    `form:"page,default=1"`
		Size int    `form:"size,default=20"`
		Q    string `form:"q"` // fuzzy match on email / full name
	}
	httpez.RegisterAction(ez, httpez.Action[listQ, *service.UserList]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (*service.UserList, error) {
			return users.List(c.Request.Context(), in.Q, in.Page, in.Size)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, service.NewNotFoundError("user not found")
			}
			if err := users.AdminDelete(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
