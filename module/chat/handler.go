package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	midsec "github.com/pulsechat/gateway/middleware/security"
	chatservice "github.com/pulsechat/gateway/module/chat/service"
	svcchat "github.com/pulsechat/gateway/service/chat"
	"github.com/pulsechat/gateway/tools/errs"
)

// API exposes the request/response surface. Message creation here and
// the live `message` event share MessageService, so their downstream
// broadcast behavior is identical.
type API struct {
	svc   *chatservice.MessageService
	store svcchat.ConversationStore
}

func NewAPI(svc *chatservice.MessageService, store svcchat.ConversationStore) *API {
	return &API{svc: svc, store: store}
}

type createConversationReq struct {
	Type    string   `json:"type" binding:"required"` // "direct" | "group"
	PeerID  string   `json:"peerId"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type createMessageReq struct {
	ConversationID string   `json:"conversationId" binding:"required"`
	Content        string   `json:"content" binding:"required"`
	Attachments    []string `json:"attachments"`
}

type editMessageReq struct {
	Content string `json:"content" binding:"required"`
}

// HandlerCreateConversation creates a direct or group conversation.
// Creating a direct conversation twice for the same pair returns the
// same conversation both times.
func (a *API) HandlerCreateConversation(c *gin.Context) {
	userID := c.GetString(midsec.CtxUserIDKey)
	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation)
		return
	}

	switch req.Type {
	case "direct":
		if req.PeerID == "" || req.PeerID == userID {
			c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail("peerId required"))
			return
		}
		if _, err := a.store.GetUser(c.Request.Context(), req.PeerID); err != nil {
			respondErr(c, err)
			return
		}
		conv, err := a.store.CreateDirectConversation(c.Request.Context(), userID, req.PeerID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, conv)
	case "group":
		conv, err := a.store.CreateGroupConversation(c.Request.Context(), req.Name, userID, req.Members)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, conv)
	default:
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail("type must be direct or group"))
	}
}

// HandlerCreateMessage persists a message and fans it out to the live
// members of the conversation, the author included.
func (a *API) HandlerCreateMessage(c *gin.Context) {
	userID := c.GetString(midsec.CtxUserIDKey)
	var req createMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation)
		return
	}

	msg, err := a.svc.Create(c.Request.Context(), userID, req.ConversationID, req.Content, req.Attachments)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// HandlerEditMessage edits a message (sender-only, not deleted).
func (a *API) HandlerEditMessage(c *gin.Context) {
	userID := c.GetString(midsec.CtxUserIDKey)
	msgID := c.Param("id")
	var req editMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation)
		return
	}

	msg, err := a.svc.Edit(c.Request.Context(), userID, msgID, req.Content)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// HandlerDeleteMessage soft-deletes a message (sender-only).
func (a *API) HandlerDeleteMessage(c *gin.Context) {
	userID := c.GetString(midsec.CtxUserIDKey)
	msgID := c.Param("id")

	if err := a.svc.Delete(c.Request.Context(), userID, msgID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "messageId": msgID})
}

func respondErr(c *gin.Context, err error) {
	var ce *errs.CodeError
	if errors.As(err, &ce) {
		c.JSON(errs.HTTPStatus(err), ce)
		return
	}
	c.JSON(http.StatusInternalServerError, errs.ErrInternal)
}
