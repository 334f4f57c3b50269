package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/drivescribe/errors"
	"github.com/skillsenselab/drivescribe/server"
	"github.com/skillsenselab/drivescribe/validation"
)

// Handler exposes the notification endpoint over HTTP.
type Handler struct {
	dispatcher *Dispatcher
}

// NewHandler creates the HTTP handler around a dispatcher.
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// RegisterRoutes mounts the webhook endpoint on the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notifications", h.HandleNotifications)
}

// HandleNotifications is the webhook entry point.
//
// A request carrying a validationToken query parameter is a subscription
// handshake: the token is echoed back verbatim as plain text before the body
// is looked at. Everything else is a change delivery: 400 for an unreadable
// payload, 410 when any entry names a subscription this service no longer
// tracks, 204 otherwise.
func (h *Handler) HandleNotifications(c *gin.Context) {
	if token, ok := c.GetQuery("validationToken"); ok {
		c.String(http.StatusOK, "%s", token)
		return
	}

	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", "malformed notification payload"))
		return
	}
	if err := validation.Validate(payload); err != nil {
		server.RespondWithError(c, err)
		return
	}

	summary := h.dispatcher.Handle(c.Request.Context(), payload)
	if summary.Gone() {
		server.RespondWithError(c, errors.SubscriptionGone(summary.GoneSubscriptions[0]))
		return
	}
	server.RespondNoContent(c)
}
