package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/services"
)

type PushHandler struct {
	registrar services.RegistrarService
}

func NewPushHandler(registrar services.RegistrarService) *PushHandler {
	return &PushHandler{registrar: registrar}
}

type registerRequest struct {
	Platform    string `json:"platform"`
	DeviceToken string `json:"deviceToken"`
}

type slugResultJSON struct {
	Slug            string `json:"slug"`
	SubscriptionARN string `json:"subscriptionArn,omitempty"`
	Error           string `json:"error,omitempty"`
}

func (h *PushHandler) Register(c *gin.Context) {
	clr, ok := caller.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, apierr.Unauthenticated())
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	result, err := h.registrar.Register(c.Request.Context(), clr, req.Platform, req.DeviceToken)
	if err != nil {
		RespondError(c, err)
		return
	}

	subs := make([]slugResultJSON, 0, len(result.Subscriptions))
	for _, sr := range result.Subscriptions {
		item := slugResultJSON{Slug: sr.Slug, SubscriptionARN: sr.SubscriptionARN}
		if sr.Err != nil {
			item.Error = apierr.MessageOf(sr.Err)
		}
		subs = append(subs, item)
	}
	RespondOK(c, gin.H{
		"deviceId":      result.DeviceID,
		"endpointArn":   result.EndpointARN,
		"subscriptions": subs,
	})
}

type deregisterRequest struct {
	DeviceID string `json:"deviceId"`
}

func (h *PushHandler) Deregister(c *gin.Context) {
	clr, ok := caller.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, apierr.Unauthenticated())
		return
	}
	var req deregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		RespondError(c, apierr.Validation("deviceId"))
		return
	}
	if err := h.registrar.Deregister(c.Request.Context(), clr, deviceID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}
