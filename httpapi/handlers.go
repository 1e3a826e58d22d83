package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/shapeseek/shapeseek"
	"github.com/shapeseek/shapeseek/catalog"
	"github.com/shapeseek/shapeseek/descriptor"
	"github.com/shapeseek/shapeseek/index"
	"github.com/shapeseek/shapeseek/mesh"
)

// DefaultMaxUploadBytes caps a single uploaded model file.
const DefaultMaxUploadBytes = 100 << 20

// Handler serves the HTTP API on top of a Manager.
type Handler struct {
	manager        *shapeseek.Manager
	logger         *shapeseek.Logger
	maxUploadBytes int64
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Logger for request and error logs. Nil means the default logger.
	Logger *shapeseek.Logger

	// MaxUploadBytes caps uploaded file size. Zero means the default.
	MaxUploadBytes int64
}

// NewHandler creates a Handler.
func NewHandler(manager *shapeseek.Manager, optFns ...func(o *HandlerOptions)) *Handler {
	opts := HandlerOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = shapeseek.NewLogger(nil)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		manager:        manager,
		logger:         opts.Logger,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

type modelResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
}

type searchHit struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name,omitempty"`
	Format     string  `json:"format,omitempty"`
	Similarity float32 `json:"similarity"`
	Distance   float32 `json:"distance"`
}

type searchResponse struct {
	Results []searchHit `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleUpload ingests a model file sent as multipart form data under the
// "file" field.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, name, format, ok := h.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	model, err := h.manager.IngestMesh(r.Context(), name, format, file)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toModelResponse(model))
}

// handleSearch extracts a descriptor from an uploaded query mesh and
// returns the most similar models. The optional "limit" form field caps the
// result count.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	file, _, format, ok := h.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	limit := shapeseek.DefaultSearchLimit
	if v := r.FormValue("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := h.manager.SearchMesh(r.Context(), format, file, limit)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toSearchResponse(r, results))
}

func (h *Handler) toSearchResponse(r *http.Request, results []index.Result) searchResponse {
	resp := searchResponse{Results: make([]searchHit, 0, len(results))}
	for _, res := range results {
		hit := searchHit{ID: res.ID, Similarity: res.Similarity, Distance: res.Distance}
		if model, err := h.manager.Lookup(r.Context(), res.ID); err == nil {
			hit.Name = model.Name
			hit.Format = model.Format
		}
		resp.Results = append(resp.Results, hit)
	}
	return resp
}

func (h *Handler) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid model id")
		return
	}
	model, err := h.manager.Lookup(r.Context(), id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toModelResponse(model))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid model id")
		return
	}
	rc, model, err := h.manager.OpenModel(r.Context(), id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", model.Name))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("model download aborted", "id", id, "error", err)
	}
}

func (h *Handler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Rebuild(r.Context()); err != nil {
		h.writeManagerError(w, err)
		return
	}
	stats, err := h.manager.Stats(r.Context())
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.Stats(r.Context())
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.Stats(r.Context())
	if err != nil || stats.State != "ready" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// openUpload pulls the "file" part out of a multipart request and derives
// the mesh format from the filename extension.
func (h *Handler) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart request: "+err.Error())
		return nil, "", "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" form field`)
		return nil, "", "", false
	}

	name := filepath.Base(header.Filename)
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if !mesh.Supported(format) {
		_ = file.Close()
		writeError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported mesh format %q, supported: %s", format, strings.Join(mesh.Formats(), ", ")))
		return nil, "", "", false
	}
	return file, name, format, true
}

func (h *Handler) writeManagerError(w http.ResponseWriter, err error) {
	var parseErr *mesh.ParseError
	var unsupported *shapeseek.ErrUnsupportedFormat

	switch {
	case errors.Is(err, shapeseek.ErrNotReady), errors.Is(err, shapeseek.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, catalog.ErrModelNotFound):
		writeError(w, http.StatusNotFound, "model not found")
	case errors.As(err, &unsupported):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.As(err, &parseErr),
		errors.Is(err, mesh.ErrEmptyMesh),
		errors.Is(err, mesh.ErrNoFaces),
		errors.Is(err, descriptor.ErrInsufficientGeometry):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toModelResponse(m catalog.Model) modelResponse {
	return modelResponse{
		ID:        m.ID,
		Name:      m.Name,
		Format:    m.Format,
		CreatedAt: m.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
