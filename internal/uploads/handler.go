package uploads

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"interview-backend/internal/sessions"
	"interview-backend/internal/shared/server/respond"
)

// multipart framing on top of the configured file cap
const multipartOverhead = 1 << 20

// Handler receives multipart uploads, buffers the file to a temp path, and
// hands it to the ingestor. It is the only place that sees the wire
// transfer; the ingestor works from files on disk.
type Handler struct {
	Ingestor *Ingestor
	TempDir  string
}

// NewHandler constructs a Handler buffering into tempDir (os.TempDir when empty).
func NewHandler(ing *Ingestor, tempDir string) *Handler {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Handler{Ingestor: ing, TempDir: tempDir}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads", h.upload)
}

type uploadResponse struct {
	OK            bool      `json:"ok"`
	Filename      string    `json:"filename"`
	SessionID     string    `json:"sessionId"`
	Question      int       `json:"question"`
	Size          int64     `json:"size"`
	UploadedAt    time.Time `json:"uploadedAt"`
	AlreadyExists bool      `json:"alreadyExists,omitempty"`
}

func (h *Handler) upload(c *gin.Context) {
	if h.Ingestor.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Ingestor.MaxBytes+multipartOverhead)
	}

	sessionID := c.PostForm("sessionId")
	if sessionID == "" {
		sessionID = c.GetHeader("X-Session-Id")
	}
	c.Set("sessionId", sessionID)

	question, _ := strconv.Atoi(c.PostForm("question"))
	c.Set("question", question)

	var file IncomingFile
	if fileHeader, err := c.FormFile("file"); err == nil {
		tempPath := filepath.Join(h.TempDir, "upload-"+uuid.NewString())
		if err := c.SaveUploadedFile(fileHeader, tempPath); err != nil {
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to buffer upload", nil)
			return
		}
		file = IncomingFile{
			TempPath:     tempPath,
			OriginalName: fileHeader.Filename,
			ContentType:  fileHeader.Header.Get("Content-Type"),
			Size:         fileHeader.Size,
		}
	}

	receipt, err := h.Ingestor.Ingest(c.Request.Context(), sessionID, question, file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond.OK(c, uploadResponse{
		OK:            true,
		Filename:      receipt.Filename,
		SessionID:     receipt.SessionID,
		Question:      receipt.Question,
		Size:          receipt.Size,
		UploadedAt:    receipt.UploadedAt,
		AlreadyExists: receipt.AlreadyExists,
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionRequired):
		respond.Error(c, http.StatusBadRequest, "session_id_required", "session id required", nil)
	case errors.Is(err, sessions.ErrBadID):
		respond.Error(c, http.StatusBadRequest, "invalid_session_id", "invalid session id format", nil)
	case errors.Is(err, sessions.ErrNotFound):
		respond.Error(c, http.StatusBadRequest, "session_not_found", "session not found", nil)
	case errors.Is(err, ErrSessionEnded):
		respond.Error(c, http.StatusGone, "session_already_finished", "session already finished", nil)
	case errors.Is(err, ErrBadQuestion):
		respond.Error(c, http.StatusBadRequest, "invalid_question", "question number out of range", nil)
	case errors.Is(err, ErrFileRequired):
		respond.Error(c, http.StatusBadRequest, "file_required", "file required", nil)
	case errors.Is(err, ErrFileTooSmall):
		respond.Error(c, http.StatusBadRequest, "file_too_small", "file below minimum size", nil)
	case errors.Is(err, ErrBadMediaType):
		respond.Error(c, http.StatusBadRequest, "unsupported_media_type", "only video/webm and video/mp4 are accepted", nil)
	case errors.Is(err, ErrFileTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds maximum size", nil)
	case errors.Is(err, ErrNoVideoStream):
		respond.Error(c, http.StatusBadRequest, "no_video_stream", "file contains no video stream", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "storage_error", "upload failed", nil)
	}
}
