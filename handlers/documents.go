package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coedit/coedit/internal/document"
	docservice "github.com/coedit/coedit/internal/document/service"
	"github.com/coedit/coedit/internal/storage"
	"github.com/coedit/coedit/pkg/logger"
	"github.com/coedit/coedit/pkg/middleware"
)

// DocumentsHandler serves the document CRUD and sharing endpoints. All routes
// require an authenticated user; per-document access is enforced by the
// service layer.
type DocumentsHandler struct {
	svc       *docservice.Service
	snapshots *storage.SnapshotStore // nil when object storage is not configured
}

func NewDocumentsHandler(svc *docservice.Service, snapshots *storage.SnapshotStore) *DocumentsHandler {
	return &DocumentsHandler{svc: svc, snapshots: snapshots}
}

// Register routes under /api/documents behind the auth middleware.
func (h *DocumentsHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	d := rg.Group("/documents", auth)
	d.GET("", h.List)
	d.POST("", h.Create)
	d.GET("/:id", h.Get)
	d.PUT("/:id", h.Update)
	d.DELETE("/:id", h.Delete)
	d.GET("/:id/collaborators", h.ListCollaborators)
	d.POST("/:id/collaborators", h.AddCollaborator)
	d.GET("/:id/snapshots", h.ListSnapshots)
	d.GET("/:id/snapshots/url", h.SnapshotURL)
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, docservice.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, docservice.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, docservice.ErrDuplicateCollaborator):
		c.JSON(http.StatusConflict, gin.H{"error": "already a collaborator"})
	case errors.Is(err, docservice.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
	case errors.Is(err, docservice.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
	default:
		logger.Errorf("document request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *DocumentsHandler) List(c *gin.Context) {
	docs, err := h.svc.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{"id": d.ID, "title": d.Title, "owner": d.OwnerID, "updatedAt": d.UpdatedAt})
	}
	c.JSON(http.StatusOK, out)
}

func (h *DocumentsHandler) Create(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DocumentsHandler) Update(c *gin.Context) {
	var req struct {
		Title   *string `json:"title,omitempty"`
		Content *string `json:"content,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == nil && req.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	d, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DocumentsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentsHandler) ListCollaborators(c *gin.Context) {
	collabs, err := h.svc.ListCollaborators(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collabs)
}

func (h *DocumentsHandler) AddCollaborator(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.svc.AddCollaborator(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Username, document.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "collaborator added"})
}

// ListSnapshots returns the archived content copies for a document the caller
// can read.
func (h *DocumentsHandler) ListSnapshots(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "snapshots not configured"})
		return
	}
	id := c.Param("id")
	// access check rides on the regular read path
	if _, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	snaps, err := h.snapshots.ListSnapshots(c.Request.Context(), id)
	if err != nil {
		logger.Errorf("snapshot listing failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot listing failed"})
		return
	}
	c.JSON(http.StatusOK, snaps)
}

// SnapshotURL returns a short-lived presigned download URL for one snapshot.
func (h *DocumentsHandler) SnapshotURL(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "snapshots not configured"})
		return
	}
	id := c.Param("id")
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key required"})
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	// reject keys pointing at other documents
	rc, err := h.snapshots.DownloadSnapshot(c.Request.Context(), id, key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}
	rc.Close()
	u, err := h.snapshots.GetPresignedURL(c.Request.Context(), key, 15*time.Minute)
	if err != nil {
		logger.Errorf("presign failed for %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u})
}
