package user

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsechat/gateway/global"
	"github.com/pulsechat/gateway/module/chat/model"
	"github.com/pulsechat/gateway/service/storage"
	"github.com/pulsechat/gateway/tools/errs"
	"github.com/pulsechat/gateway/tools/ids"
	"github.com/pulsechat/gateway/tools/security"
)

type loginReq struct {
	UserID string `json:"userId" binding:"required"`
}

type registerReq struct {
	Name string `json:"name" binding:"required"`
}

// HandlerLogin issues a session token for an existing user. The token
// authenticates the request path only; the live socket authenticates
// separately through the auth event.
func HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation)
		return
	}

	u, err := model.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.ErrNotFound)
		return
	}

	opts := security.DefaultOptions(global.Conf().JWTSecret)
	opts.TTL = global.Conf().JWTTTL
	token, expireAt, err := security.Generate(opts, u.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"expireAt": expireAt.UnixMilli(),
		"user":     u,
	})
}

// HandlerGetPresence reports a user's last persisted availability.
// Never-seen users read as "offline".
func HandlerGetPresence(c *gin.Context) {
	userID := c.Param("id")
	if _, err := model.GetUser(c.Request.Context(), userID); err != nil {
		c.JSON(errs.HTTPStatus(err), errs.ErrNotFound)
		return
	}

	status, err := storage.NewPresenceStore().GetUserAvailability(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "status": status})
}

// HandlerRegister creates a user and returns it.
func HandlerRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation)
		return
	}

	u := &model.User{
		UserID:     ids.GenerateString(),
		Name:       req.Name,
		CreateTime: time.Now().UnixMilli(),
	}
	if err := u.Insert(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, u)
}
