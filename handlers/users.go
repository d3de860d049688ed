package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coedit/coedit/internal/users"
	"github.com/coedit/coedit/pkg/logger"
)

// UsersHandler serves the user directory used by the share dialog.
type UsersHandler struct {
	svc *users.Service
}

func NewUsersHandler(svc *users.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

func (h *UsersHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/users", h.List)
}

// List returns every known user for the collaborator picker. Password hashes
// never leave the service.
func (h *UsersHandler) List(c *gin.Context) {
	all, err := h.svc.List(c.Request.Context())
	if err != nil {
		logger.Errorf("user listing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user listing failed"})
		return
	}
	out := make([]gin.H, 0, len(all))
	for _, u := range all {
		out = append(out, gin.H{"id": u.ID, "username": u.Username, "email": u.Email})
	}
	c.JSON(http.StatusOK, out)
}
