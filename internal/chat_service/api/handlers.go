package api

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"docchat/internal/chat_service/service"
	"docchat/internal/models"
	"docchat/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// API provides the HTTP and WebSocket handlers for the chat service.
type API struct {
	service     *service.ChatService
	logger      *logger.Logger
	maxFileSize int64
	upgrader    websocket.Upgrader
}

// NewAPI creates a new API handler. maxFileSize bounds a single uploaded
// file; non-positive defaults to 30 MiB.
func NewAPI(svc *service.ChatService, maxFileSize int64, log *logger.Logger) *API {
	if maxFileSize <= 0 {
		maxFileSize = 30 << 20
	}
	return &API{
		service:     svc,
		logger:      log,
		maxFileSize: maxFileSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // In production, implement a proper origin check.
			},
		},
	}
}

// fileOutcome reports one successfully stored upload.
type fileOutcome struct {
	OriginalName string `json:"original_name"`
	SavedName    string `json:"saved_name"`
}

// fileError reports one rejected upload.
type fileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// UploadHandler accepts a multipart batch of PDF files. Each file is
// validated and stored independently; a session token is issued when at
// least one file makes it through. If every file fails, the batch is
// rejected as a whole with the per-file reasons.
func (a *API) UploadHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	var stored []fileOutcome
	var failed []fileError
	for _, fh := range files {
		savedName, err := a.storeFile(c, fh)
		if err != nil {
			a.logger.WithPayload(map[string]interface{}{"filename": fh.Filename}).
				WithError(models.ErrorInfo{Message: err.Error()}).Warn("Rejected uploaded file")
			failed = append(failed, fileError{Filename: fh.Filename, Error: err.Error()})
			continue
		}
		stored = append(stored, fileOutcome{OriginalName: fh.Filename, SavedName: savedName})
	}

	if len(stored) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": gin.H{
			"message": "All uploads failed",
			"errors":  failed,
		}})
		return
	}

	sessionID, err := a.service.IssueSession(c.Request.Context())
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to issue session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"files":      stored,
		"errors":     failed,
		"session_id": sessionID,
	})
}

// storeFile validates one uploaded file and hands it to the service layer.
func (a *API) storeFile(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if err := a.validateUpload(fh); err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	defer f.Close()

	return a.service.StoreDocument(c.Request.Context(), fh.Filename, f, fh.Size)
}

// validateUpload enforces the per-file upload constraints: a filename, the
// size cap, a .pdf extension with a matching declared content type, and PDF
// magic bytes in the actual content.
func (a *API) validateUpload(fh *multipart.FileHeader) error {
	if fh.Filename == "" {
		return fmt.Errorf("file has no filename")
	}
	if fh.Size > a.maxFileSize {
		return fmt.Errorf("file exceeds the maximum size of %d bytes", a.maxFileSize)
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return fmt.Errorf("only PDF files are accepted")
	}
	if declared := fh.Header.Get("Content-Type"); declared != "application/pdf" {
		return fmt.Errorf("declared content type %q is not application/pdf", declared)
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to read uploaded file: %w", err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("failed to sniff file content: %w", err)
	}
	if !mtype.Is("application/pdf") {
		return fmt.Errorf("file content is %s, not application/pdf", mtype.String())
	}
	return nil
}

// WebSocketHandler upgrades the request and hands the connection to the
// service, which performs the authorization gate and runs the question loop
// until the client disconnects.
func (a *API) WebSocketHandler(c *gin.Context) {
	sessionID := c.Param("session_id")

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to upgrade WebSocket connection")
		return
	}

	a.service.HandleConnection(sessionID, conn)
}

// askRequest is the payload of the synchronous ask endpoint.
type askRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Question  string `json:"question" binding:"required"`
}

// AskHandler answers a single question outside a WebSocket session. The
// session's index is rebuilt from all stored documents for every call.
func (a *API) AskHandler(c *gin.Context) {
	var payload askRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if !a.service.IsAuthorized(c.Request.Context(), payload.SessionID) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Unauthorized: Upload documents first"})
		return
	}

	res, err := a.service.Ask(c.Request.Context(), payload.Question)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to answer question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": service.RenderText(res)})
}

// IndexHandler serves the minimal upload page.
func (a *API) IndexHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>Document Chat</title></head>
<body>
  <h1>Upload PDF documents</h1>
  <form action="/api/v1/documents" method="post" enctype="multipart/form-data">
    <input type="file" name="files" accept="application/pdf" multiple>
    <button type="submit">Upload</button>
  </form>
  <p>After uploading, connect to <code>/ws/&lt;session_id&gt;</code> to chat.</p>
</body>
</html>
`
