// Package chi exposes the lost-and-found API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/domain"
	domitem "github.com/civic-cloud/lostfound/internal/domain/item"
	domkw "github.com/civic-cloud/lostfound/internal/domain/keyword"
	"github.com/civic-cloud/lostfound/internal/domain/match"
	healthuc "github.com/civic-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/civic-cloud/lostfound/internal/usecase/item"
)

// defaultMaxUploadBytes caps multipart uploads when no limit is configured.
const defaultMaxUploadBytes = 10 << 20

type itemService interface {
	List(ctx context.Context, c itemuc.Criteria) ([]domitem.Record, error)
	BySubcategory(ctx context.Context, subcategory string) ([]domitem.Record, error)
	Create(ctx context.Context, rec *domitem.Record) (domitem.Record, error)
	Update(ctx context.Context, id, place string, updates map[string]json.RawMessage) (domitem.Record, error)
	UpdateKeywords(ctx context.Context, id string, keywords []string) (domitem.Record, error)
	Delete(ctx context.Context, id string) (domitem.Record, error)
	DeleteAll(ctx context.Context) (int, error)
}

type classifyService interface {
	Image(ctx context.Context, image []byte, contentType string) (domain.ImageClassification, error)
	SelectKeyword(ctx context.Context, text string) match.Result
}

// ImageUploader stores uploaded item photos. Exported so the composition
// root can hold a nil value of the interface type when storage is absent.
type ImageUploader interface {
	Upload(ctx context.Context, reader io.Reader, filename, contentType string, size int64) (string, error)
}

type keywordWriter interface {
	Add(ctx context.Context, fields map[string]string) (domkw.Record, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorCode is the machine-readable error identifier in error responses.
type errorCode string

const (
	codeBadRequest            errorCode = "bad_request"
	codeValidationFailed      errorCode = "validation_failed"
	codeItemNotFound          errorCode = "item_not_found"
	codeOracleUnavailable     errorCode = "oracle_unavailable"
	codeOracleBadResponse     errorCode = "oracle_bad_response"
	codeImageStoreUnavailable errorCode = "image_store_unavailable"
	codePartialDelete         errorCode = "partial_delete"
	codeInternalError         errorCode = "internal_error"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the lost-and-found API.
type Server struct {
	items          itemService
	classify       classifyService
	images         ImageUploader
	keywords       keywordWriter
	health         healthService
	logger         *zap.Logger
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. images may be nil when object storage
// is not configured; the image-store route then answers 502.
func NewServer(
	items itemService,
	classify classifyService,
	images ImageUploader,
	keywords keywordWriter,
	health healthService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	s := &Server{
		items:          items,
		classify:       classify,
		images:         images,
		keywords:       keywords,
		health:         health,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
	s.errorHandlers = []errorHandler{
		partialDeleteHandler,
		sentinelHandler(domain.ErrItemNotFound, http.StatusNotFound, codeItemNotFound),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrOracleBadResponse, http.StatusBadGateway, codeOracleBadResponse),
		sentinelHandler(domain.ErrOracleUnavailable, http.StatusBadGateway, codeOracleUnavailable),
		sentinelHandler(domain.ErrImageStoreUnavailable, http.StatusBadGateway, codeImageStoreUnavailable),
	}
	return s
}

// Register mounts every route on the router.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/items", s.listItems)
		r.Get("/items/by-subcategory", s.listBySubcategory)
		r.Post("/items", s.createItem)
		r.Delete("/items", s.deleteAllItems)
		r.Put("/items/{id}", s.updateItem)
		r.Delete("/items/{id}", s.deleteItem)
		r.Post("/items/{id}/keywords", s.updateItemKeywords)
		r.Post("/image-classify", s.classifyImage)
		r.Post("/image-store", s.storeImage)
		r.Post("/keyword-select", s.selectKeyword)
		r.Post("/keywords", s.addKeyword)
	})
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metrics)
}

// itemListResponse is the body of every multi-record reply.
type itemListResponse struct {
	Items []domitem.Record `json:"items"`
	Total int              `json:"total"`
}

// listItems handles GET /api/v1/items.
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := itemuc.Criteria{
		Municipality: q.Get("municipality"),
		Category:     q.Get("category"),
		Color:        q.Get("color"),
		FreeText:     q.Get("freeText"),
		FindDate:     q.Get("findDate"),
	}

	items, err := s.items.List(r.Context(), c)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemListResponse{Items: items, Total: len(items)})
}

// listBySubcategory handles GET /api/v1/items/by-subcategory.
func (s *Server) listBySubcategory(w http.ResponseWriter, r *http.Request) {
	subcategory := r.URL.Query().Get("subcategory")
	if subcategory == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "subcategory is required")
		return
	}

	items, err := s.items.BySubcategory(r.Context(), subcategory)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemListResponse{Items: items, Total: len(items)})
}

// createItem handles POST /api/v1/items.
func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var rec domitem.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.items.Create(r.Context(), &rec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/items/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// updateItem handles PUT /api/v1/items/{id}. The body is a partial record;
// the partition key may be supplied via the place query parameter.
func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var updates map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := s.items.Update(r.Context(), id, r.URL.Query().Get("place"), updates)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

type updateKeywordsRequest struct {
	Keyword []string `json:"keyword"`
}

// updateItemKeywords handles POST /api/v1/items/{id}/keywords.
func (s *Server) updateItemKeywords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateKeywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := s.items.UpdateKeywords(r.Context(), id, req.Keyword)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// deleteItem handles DELETE /api/v1/items/{id}. The deleted record is
// returned so callers can clean up referenced images.
func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.items.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleted)
}

// deleteAllItems handles DELETE /api/v1/items.
func (s *Server) deleteAllItems(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.items.DeleteAll(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

type classifyResponse struct {
	Color    string   `json:"color"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// classifyImage handles POST /api/v1/image-classify (multipart, field "image").
func (s *Server) classifyImage(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "read upload: "+err.Error())
		return
	}

	guess, err := s.classify.Image(r.Context(), image, header.Header.Get("Content-Type"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{
		Color:    guess.Color,
		Category: guess.Category,
		Tags:     guess.Tags,
	})
}

// storeImage handles POST /api/v1/image-store (multipart, field "image").
func (s *Server) storeImage(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		writeError(w, http.StatusBadGateway, codeImageStoreUnavailable, "image store is not configured")
		return
	}

	file, header, ok := s.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	url, err := s.images.Upload(
		r.Context(), file, header.Filename, header.Header.Get("Content-Type"), header.Size,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

type selectKeywordRequest struct {
	Text string `json:"text"`
}

type selectKeywordResponse struct {
	Keyword string `json:"keyword,omitempty"`
	Matched bool   `json:"matched"`
	Reason  string `json:"reason,omitempty"`
}

// Reasons for an unmatched keyword-select answer.
const (
	reasonNoKeywords = "no_keywords"
	reasonNoMatch    = "no_match"
)

// selectKeyword handles POST /api/v1/keyword-select. An empty vocabulary is a
// plain no-match, not an error; the reason field distinguishes it from a
// vocabulary miss.
func (s *Server) selectKeyword(w http.ResponseWriter, r *http.Request) {
	var req selectKeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res := s.classify.SelectKeyword(r.Context(), req.Text)
	if err := res.Err(); err != nil && !errors.Is(err, domain.ErrNoKeywords) {
		s.handleDomainError(w, err)
		return
	}

	resp := selectKeywordResponse{}
	if v, ok := res.Value(); ok {
		resp.Keyword = v
		resp.Matched = true
	} else if errors.Is(res.Err(), domain.ErrNoKeywords) {
		resp.Reason = reasonNoKeywords
	} else {
		resp.Reason = reasonNoMatch
	}
	writeJSON(w, http.StatusOK, resp)
}

type keywordResponse struct {
	PartitionKey string            `json:"partitionKey"`
	RowKey       string            `json:"rowKey"`
	CreatedAt    string            `json:"createdAt"`
	Fields       map[string]string `json:"fields,omitempty"`
}

// addKeyword handles POST /api/v1/keywords. The body is a flat string map;
// itemType selects the partition.
func (s *Server) addKeyword(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if fields["keyword"] == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "keyword is required")
		return
	}

	row, err := s.keywords.Add(r.Context(), fields)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, keywordResponse{
		PartitionKey: row.PartitionKey,
		RowKey:       row.RowKey,
		CreatedAt:    row.CreatedAt.Format(time.RFC3339Nano),
		Fields:       row.Fields,
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// metrics handles GET /metrics.
func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// openUpload extracts the "image" part of a size-capped multipart request.
// On failure the error is already written and ok is false.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "parse multipart form: "+err.Error())
		return nil, nil, false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "image file is required")
		return nil, nil, false
	}
	return file, header, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrItemNotFound,
		domain.ErrValidation,
		domain.ErrNoKeywords,
		domain.ErrOracleUnavailable,
		domain.ErrOracleBadResponse,
		domain.ErrImageStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// partialDeleteHandler reports a bulk delete that removed only part of the
// records, with the deleted and failed counts.
func partialDeleteHandler(w http.ResponseWriter, err error, _ string) bool {
	var pde *domain.PartialDeleteError
	if !errors.As(err, &pde) {
		return false
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"code":    codePartialDelete,
		"message": fmt.Sprintf("deleted %d records, %d failed", pde.Deleted, pde.Failed),
		"deleted": pde.Deleted,
		"failed":  pde.Failed,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
