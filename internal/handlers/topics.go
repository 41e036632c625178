package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/services"
)

type TopicHandler struct {
	topicService services.TopicService
}

func NewTopicHandler(topicService services.TopicService) *TopicHandler {
	return &TopicHandler{topicService: topicService}
}

type ensureTopicRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func (h *TopicHandler) Ensure(c *gin.Context) {
	var req ensureTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	if req.Name == "" {
		req.Name = req.Slug
	}
	topic, err := h.topicService.Ensure(c.Request.Context(), req.Slug, req.Name)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, topic)
}

func (h *TopicHandler) List(c *gin.Context) {
	topics, err := h.topicService.List(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"topics": topics})
}

type subscribeRequest struct {
	DeviceID    string `json:"deviceId"`
	EndpointARN string `json:"endpointArn"`
	Slug        string `json:"slug"`
}

func (h *TopicHandler) Subscribe(c *gin.Context) {
	clr, ok := caller.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, apierr.Unauthenticated())
		return
	}
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	deviceID, err := parseOptionalID(req.DeviceID)
	if err != nil {
		RespondError(c, apierr.Validation("deviceId"))
		return
	}
	subARN, err := h.topicService.Subscribe(c.Request.Context(), clr, deviceID, req.EndpointARN, req.Slug)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"subscriptionArn": subARN})
}

type unsubscribeRequest struct {
	DeviceID string `json:"deviceId"`
	Slug     string `json:"slug"`
}

func (h *TopicHandler) Unsubscribe(c *gin.Context) {
	clr, ok := caller.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, apierr.Unauthenticated())
		return
	}
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	deviceID, err := parseOptionalID(req.DeviceID)
	if err != nil {
		RespondError(c, apierr.Validation("deviceId"))
		return
	}
	if err := h.topicService.Unsubscribe(c.Request.Context(), clr, deviceID, req.Slug); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

func parseOptionalID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
