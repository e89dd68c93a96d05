package sessions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/tokens"
)

// Handler wires HTTP handlers to the manager.
type Handler struct {
	Manager *Manager
}

// NewHandler constructs a Handler.
func NewHandler(m *Manager) *Handler {
	return &Handler{Manager: m}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions/:id", h.status)
	rg.POST("/sessions/:id/end", h.end)
}

type createRequest struct {
	Candidate   string `json:"candidate"`
	Token       string `json:"token"`
	BrowserInfo any    `json:"browserInfo"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	code, err := tokens.ParseCode(req.Token)
	if err != nil {
		respond.Error(c, http.StatusUnauthorized, "invalid_token_format", "token must match the admission code format", nil)
		return
	}

	session, err := h.Manager.Create(c.Request.Context(), req.Candidate, code)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrNotFound):
			respond.Error(c, http.StatusUnauthorized, "token_not_found", "unknown token", nil)
		case errors.Is(err, tokens.ErrAlreadyUsed):
			respond.Error(c, http.StatusUnauthorized, "token_already_used", "token has already been used", nil)
		case errors.Is(err, tokens.ErrExpired):
			respond.Error(c, http.StatusUnauthorized, "token_expired", "token has expired", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "storage_error", "cannot create session", nil)
		}
		return
	}

	if req.BrowserInfo != nil {
		// Best-effort; the session is already created and usable without it.
		if _, err := h.Manager.Update(c.Request.Context(), session.SessionID, Patch{
			Metadata: map[string]any{"browserInfo": req.BrowserInfo},
		}); err != nil {
			telemetry.Warn("sessions.browser_info_failed", map[string]any{
				"session_id": session.SessionID,
				"err":        err.Error(),
			})
		}
	}

	c.Set("sessionId", session.SessionID)
	respond.OK(c, gin.H{
		"ok":         true,
		"sessionId":  session.SessionID,
		"startedAt":  session.StartedAt,
		"folderName": session.FolderName,
	})
}

func (h *Handler) status(c *gin.Context) {
	id := c.Param("id")
	c.Set("sessionId", id)

	session, err := h.Manager.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadID):
			respond.Error(c, http.StatusBadRequest, "invalid_session_id", "invalid session id format", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "session_not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to fetch session", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"ok":      true,
		"session": toStatus(session),
	})
}

func (h *Handler) end(c *gin.Context) {
	id := c.Param("id")
	c.Set("sessionId", id)

	session, err := h.Manager.End(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadID):
			respond.Error(c, http.StatusBadRequest, "invalid_session_id", "invalid session id format", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "session_not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to end session", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"ok":        true,
		"sessionId": session.SessionID,
		"startedAt": session.StartedAt,
		"endedAt":   session.EndedAt,
	})
}
