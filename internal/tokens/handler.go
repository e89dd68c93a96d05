package tokens

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the registry.
type Handler struct {
	Registry *Registry
}

// NewHandler constructs a Handler.
func NewHandler(reg *Registry) *Handler {
	return &Handler{Registry: reg}
}

// RegisterRoutes attaches operator token routes to the (admin-guarded) group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tokens", h.issue)
}

type issueRequest struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type tokenResponse struct {
	Token     string     `json:"token"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (h *Handler) issue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	code, err := ParseCode(req.Token)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "token must match the admission code format", nil)
		return
	}

	rec, err := h.Registry.Issue(c.Request.Context(), code, req.ExpiresAt)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to issue token", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, tokenResponse{
		Token:     rec.Token,
		Used:      rec.Used,
		UsedAt:    rec.UsedAt,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	})
}
