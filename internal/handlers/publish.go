package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/gateway"
	"github.com/schoolping/schoolping-backend/internal/services"
)

type PublishHandler struct {
	publishService services.PublishService
}

func NewPublishHandler(publishService services.PublishService) *PublishHandler {
	return &PublishHandler{publishService: publishService}
}

type messageJSON struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
	Badge *int   `json:"badge"`
	Link  string `json:"link"`
}

func (m messageJSON) toMessage() gateway.Message {
	return gateway.Message{
		Title: m.Title,
		Body:  m.Body,
		Sound: m.Sound,
		Badge: m.Badge,
		Link:  m.Link,
	}
}

type publishResultJSON struct {
	Slug      string `json:"slug"`
	TopicARN  string `json:"topicArn,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func toPublishResultJSON(r services.PublishResult) publishResultJSON {
	item := publishResultJSON{Slug: r.Slug, TopicARN: r.TopicARN, MessageID: r.MessageID}
	if r.Err != nil {
		item.Error = apierr.MessageOf(r.Err)
	}
	return item
}

type publishCourseRequest struct {
	CourseID string      `json:"courseId"`
	Audience string      `json:"audience"`
	Type     string      `json:"type"`
	Message  messageJSON `json:"message"`
}

func (h *PublishHandler) PublishToCourse(c *gin.Context) {
	clr, ok := caller.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, apierr.Unauthenticated())
		return
	}
	var req publishCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		RespondError(c, apierr.Validation("courseId"))
		return
	}
	results, err := h.publishService.PublishToCourse(c.Request.Context(), clr, courseID, req.Audience, req.Type, req.Message.toMessage())
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]publishResultJSON, 0, len(results))
	for _, r := range results {
		out = append(out, toPublishResultJSON(r))
	}
	RespondOK(c, gin.H{"results": out})
}

type publishRoleRequest struct {
	Role    string      `json:"role"`
	Message messageJSON `json:"message"`
}

func (h *PublishHandler) PublishToRole(c *gin.Context) {
	clr, ok := caller.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, apierr.Unauthenticated())
		return
	}
	var req publishRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	result, err := h.publishService.PublishToRole(c.Request.Context(), clr, req.Role, req.Message.toMessage())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, toPublishResultJSON(*result))
}

type publishDeviceRequest struct {
	DeviceID    string      `json:"deviceId"`
	EndpointARN string      `json:"endpointArn"`
	Message     messageJSON `json:"message"`
}

func (h *PublishHandler) PublishToDevice(c *gin.Context) {
	clr, ok := caller.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, apierr.Unauthenticated())
		return
	}
	var req publishDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("body"))
		return
	}
	deviceID, err := parseOptionalID(req.DeviceID)
	if err != nil {
		RespondError(c, apierr.Validation("deviceId"))
		return
	}
	result, err := h.publishService.PublishToDevice(c.Request.Context(), clr, deviceID, req.EndpointARN, req.Message.toMessage())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"endpointArn": result.EndpointARN, "messageId": result.MessageID})
}
