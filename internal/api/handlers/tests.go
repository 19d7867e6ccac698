package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/DanielBelovol/ThumbnailTester/internal/database"
	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/media"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"
	"github.com/DanielBelovol/ThumbnailTester/internal/orchestrator"
	"github.com/DanielBelovol/ThumbnailTester/internal/services/supabase"
	"github.com/DanielBelovol/ThumbnailTester/internal/services/youtube"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TestHandler struct {
	store     *database.SessionStore
	images    *supabase.ImageStore
	validator *media.Validator
	manager   *orchestrator.Manager
	logger    *logger.Logger
}

func NewTestHandler(store *database.SessionStore, images *supabase.ImageStore, validator *media.Validator, manager *orchestrator.Manager, logger *logger.Logger) *TestHandler {
	return &TestHandler{
		store:     store,
		images:    images,
		validator: validator,
		manager:   manager,
		logger:    logger,
	}
}

type variantRequest struct {
	ImageBase64 string `json:"image_base64,omitempty"`
	Text        string `json:"text,omitempty"`
}

type createTestRequest struct {
	UserID       string                 `json:"user_id" binding:"required"`
	Video        string                 `json:"video" binding:"required"`
	Mode         models.TestMode        `json:"mode" binding:"required"`
	DwellMinutes int                    `json:"dwell_minutes"`
	Criterion    models.WinnerCriterion `json:"criterion"`
	Variants     []variantRequest       `json:"variants" binding:"required"`
}

// Create accepts a test request, stages the candidate images, persists the
// session as PENDING and hands it to the orchestrator. The response returns
// immediately; progress flows over the event channels.
func (h *TestHandler) Create(c *gin.Context) {
	var req createTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Criterion == "" {
		req.Criterion = models.CriterionNone
	}

	videoID, err := youtube.VideoIDFromURL(req.Video)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := uuid.New().String()
	needsImage := req.Mode == models.ModeImage || req.Mode == models.ModeImageText

	var imageRefs, texts []string
	for i, v := range req.Variants {
		texts = append(texts, v.Text)
		if !needsImage {
			continue
		}
		if v.ImageBase64 == "" {
			imageRefs = append(imageRefs, "")
			continue
		}
		data, err := base64.StdEncoding.DecodeString(v.ImageBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Variant image is not valid base64"})
			return
		}
		if err := h.validator.Validate(data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ref, err := h.images.Put(c.Request.Context(), sessionID, i, data)
		if err != nil {
			h.logger.Error("Failed to stage image for session %s: %v", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}
		imageRefs = append(imageRefs, ref)
	}

	sess, err := models.NewTestSession(req.UserID, videoID, req.Mode, req.DwellMinutes, req.Criterion, imageRefs, texts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess.ID = sessionID

	if err := h.store.SaveSession(c.Request.Context(), sess); err != nil {
		h.logger.Error("Failed to save session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	h.manager.Launch(sess)

	c.JSON(http.StatusAccepted, gin.H{"data": sess})
}

func (h *TestHandler) Get(c *gin.Context) {
	id := c.Param("id")

	sess, err := h.store.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sess})
}

func (h *TestHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	sessions, err := h.store.ListSessions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

// Cancel aborts a running session. The orchestrator marks it FAILED and emits
// the error and final events.
func (h *TestHandler) Cancel(c *gin.Context) {
	id := c.Param("id")

	if !h.manager.Cancel(id) {
		c.JSON(http.StatusConflict, gin.H{"error": "Session is not running"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"id": id, "canceling": true}})
}
