package api

import (
	"MultiAI_Assistant/backend/go/internal/career"
	"MultiAI_Assistant/backend/go/internal/chat"
	"MultiAI_Assistant/backend/go/internal/models"
	"MultiAI_Assistant/backend/go/internal/pdfqa"
	"MultiAI_Assistant/backend/go/pkg/httpmiddleware"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// maxFileBytes bounds a single uploaded file.
const maxFileBytes = 20 << 20

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// API provides handlers for the assistant gateway.
type API struct {
	pdf    *pdfqa.Client
	chat   *chat.Client
	career *career.Client
	checks []HealthCheck
	logger *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(pdf *pdfqa.Client, chat *chat.Client, career *career.Client, logger *logger.Logger, checks ...HealthCheck) *API {
	return &API{pdf: pdf, chat: chat, career: career, checks: checks, logger: logger}
}

func requestContext(c *gin.Context) context.Context {
	return orchestrator.WithTraceID(c.Request.Context(), httpmiddleware.TraceID(c))
}

func errorJSON(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{"error": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// failureStatus maps a failed Result to a gateway status: the backend's own 4xx when
// the last strategy got one, 504 for cancellation, otherwise 502.
func failureStatus(res orchestrator.Result) int {
	if res.Err == nil {
		return http.StatusBadGateway
	}
	if res.Err.Kind == orchestrator.Cancelled {
		return http.StatusGatewayTimeout
	}
	if n := len(res.Err.Details); n > 0 {
		if code := res.Err.Details[n-1].StatusCode; code >= 400 && code < 500 {
			return code
		}
	}
	return http.StatusBadGateway
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxFileBytes {
		return nil, fmt.Errorf("file %s exceeds %d bytes", fh.Filename, maxFileBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxFileBytes+1))
}

// UploadHandler proxies a PDF upload and always answers with an extractedSessionId on success.
func (a *API) UploadHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		errorJSON(c, http.StatusBadRequest, "No files found in request", nil)
		return
	}
	fh := form.File["files"][0]
	content, err := readFormFile(fh)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	res, err := a.pdf.UploadDocument(requestContext(c), pdfqa.Document{Name: fh.Filename, Content: content})
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "ValidationError"}).Warn("Rejected upload")
		errorJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !res.Success {
		errorJSON(c, failureStatus(res.Result), res.Err.Error(), nil)
		return
	}

	body := gin.H{}
	for k, v := range res.Fields {
		body[k] = v
	}
	body["extractedSessionId"] = res.SessionID
	body["pages"] = res.Info.Pages
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	c.JSON(http.StatusOK, body)
}

// AskHandler proxies a question about an uploaded document.
func (a *API) AskHandler(c *gin.Context) {
	var payload struct {
		Question  string `json:"question"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request payload", nil)
		return
	}

	res, err := a.pdf.AskQuestion(requestContext(c), payload.Question, payload.SessionID)
	switch {
	case errors.Is(err, pdfqa.ErrQuestionRequired):
		errorJSON(c, http.StatusBadRequest, "Question is required", nil)
		return
	case errors.Is(err, pdfqa.ErrSessionRequired):
		errorJSON(c, http.StatusBadRequest, "Session ID is required", nil)
		return
	case err != nil:
		errorJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !res.Success {
		errorJSON(c, failureStatus(res), res.Err.Error(), gin.H{"has_documents": false})
		return
	}
	if res.Fields == nil {
		c.JSON(http.StatusOK, gin.H{"answer": string(res.Payload)})
		return
	}
	c.JSON(http.StatusOK, res.Fields)
}

// SessionHandler returns what the gateway knows about an uploaded session.
func (a *API) SessionHandler(c *gin.Context) {
	store := a.pdf.Sessions()
	if store == nil {
		errorJSON(c, http.StatusNotFound, "Session not found", nil)
		return
	}
	sess, ok, err := store.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "Failed to read session", nil)
		return
	}
	if !ok {
		errorJSON(c, http.StatusNotFound, "Session not found", nil)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ForgetSessionHandler drops a session from the local store.
func (a *API) ForgetSessionHandler(c *gin.Context) {
	if store := a.pdf.Sessions(); store != nil {
		if err := store.Forget(c.Request.Context(), c.Param("id")); err != nil {
			errorJSON(c, http.StatusInternalServerError, "Failed to delete session", nil)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// ChatHandler forwards a Ghana chat message.
func (a *API) ChatHandler(c *gin.Context) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request payload", nil)
		return
	}

	reply, err := a.chat.SendMessage(requestContext(c), payload.Message)
	if errors.Is(err, chat.ErrMessageRequired) {
		errorJSON(c, http.StatusBadRequest, "Message is required", nil)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to process request",
			"answer": "Sorry, I encountered an error while processing your request. Please try again later.",
		})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// CoverLetterHandler generates a cover letter from an uploaded CV.
func (a *API) CoverLetterHandler(c *gin.Context) {
	fh, err := c.FormFile("cv_file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "cv_file is required", nil)
		return
	}
	content, err := readFormFile(fh)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	letter, err := a.career.GenerateCoverLetter(requestContext(c), career.CoverLetterRequest{
		CV:                     career.File{Name: fh.Filename, Content: content},
		ApplyingRole:           c.PostForm("applying_role"),
		CompanyName:            c.PostForm("company_name"),
		Tone:                   c.PostForm("tone"),
		AdditionalInstructions: c.PostForm("additional_instructions"),
	})
	if err != nil {
		errorJSON(c, careerStatus(err), err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, letter)
}

// AnalyzeCVHandler analyzes an uploaded CV and returns matching jobs.
func (a *API) AnalyzeCVHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	content, err := readFormFile(fh)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	topN, _ := strconv.Atoi(c.DefaultPostForm("top_n", c.DefaultQuery("top_n", "5")))

	analysis, src, err := a.career.AnalyzeCV(requestContext(c), career.File{Name: fh.Filename, Content: content}, topN)
	if err != nil {
		errorJSON(c, careerStatus(err), err.Error(), nil)
		return
	}
	c.Header("X-Cache", src.String())
	c.JSON(http.StatusOK, analysis)
}

func careerStatus(err error) int {
	switch {
	case errors.Is(err, career.ErrCVRequired), errors.Is(err, career.ErrRoleRequired), errors.Is(err, career.ErrCompanyRequired):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrCancelled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// HealthHandler reports the state of every configured dependency.
func (a *API) HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for _, hc := range a.checks {
		if err := hc.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[hc.Name] = err.Error()
			continue
		}
		results[hc.Name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
