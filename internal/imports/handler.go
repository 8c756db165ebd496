package imports

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"grc-backend/internal/extract"
	"grc-backend/internal/llm"
	"grc-backend/internal/shared/server/middleware"
	"grc-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches import routes to rg, which is expected to be the
// /imports group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/schemas", h.schemas)
	rg.GET("/llm/health", h.llmHealth)
	rg.POST("/:schema", h.upload)
	rg.POST("/:schema/records", h.save)
	rg.GET("/:schema/records", h.list)
	rg.GET("/:schema/records/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	schemaName := c.Param("schema")
	if _, err := h.Svc.Schema(schemaName); err != nil {
		h.writeError(c, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(c, err)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	result, err := h.Svc.Import(c.Request.Context(), userID, schemaName, extract.UploadedDocument{
		Data:     buf.Bytes(),
		MimeType: fileHeader.Header.Get("Content-Type"),
		FileName: fileHeader.Filename,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) save(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	result, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("schema"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusCreated
	if len(result.Saved) == 0 {
		status = http.StatusUnprocessableEntity
	}
	respond.JSON(c, status, result)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	records, err := h.Svc.List(c.Request.Context(), c.Param("schema"), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]gin.H, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toResponse(rec))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Svc.Get(c.Request.Context(), c.Param("schema"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, toResponse(rec))
}

func (h *Handler) schemas(c *gin.Context) {
	respond.OK(c, h.Svc.Schemas())
}

func (h *Handler) llmHealth(c *gin.Context) {
	health, err := h.Svc.CheckLLM(c.Request.Context())
	if err != nil {
		details := gin.H{"provider": health.Provider, "model": health.Model}
		if errors.Is(err, llm.ErrNotConfigured) {
			respond.Error(c, http.StatusServiceUnavailable, "llm_not_configured", "no LLM provider is configured", details)
			return
		}
		details["kind"] = llm.Classify(err)
		respond.Error(c, http.StatusBadGateway, "llm_unavailable", err.Error(), details)
		return
	}
	respond.OK(c, health)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ErrUnknownSchema):
		respond.Error(c, http.StatusNotFound, "unknown_schema", err.Error(), gin.H{"schemas": h.Svc.Catalog.Names()})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "record not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.As(err, &maxErr):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB", nil)
	case errors.Is(err, extract.ErrUnsupportedFormat):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_format", err.Error(), nil)
	case errors.Is(err, extract.ErrExtractionFailed):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "import failed", nil)
	}
}

func toResponse(rec Record) gin.H {
	return gin.H{
		"id":           rec.ID,
		"schema":       rec.SchemaName,
		"title":        rec.Title,
		"ownerId":      rec.OwnerID,
		"documentName": rec.SourceFile,
		"storageKey":   rec.StorageKey,
		"record":       rec.Values,
		"provenance":   rec.Provenance,
		"createdAt":    rec.CreatedAt,
	}
}
