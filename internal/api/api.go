// Package api exposes the document model, validation, and execution
// engine over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iamoneai/laneflow/pkg/docio"
	"github.com/iamoneai/laneflow/pkg/engine"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/store"
	"github.com/iamoneai/laneflow/pkg/template"
)

// Server bundles the dependencies behind the HTTP surface.
type Server struct {
	store   store.Store
	engine  *engine.Engine
	catalog template.Catalog
	logger  *log.Logger
}

// New creates a server. All dependencies are required.
func New(st store.Store, eng *engine.Engine, catalog template.Catalog, logger *log.Logger) *Server {
	return &Server{store: st, engine: eng, catalog: catalog, logger: logger}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/templates", s.handleTemplates)
		r.Post("/validate", s.handleValidate)
		r.Post("/run", s.handleRun)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Put("/", s.handlePutDocument)
				r.Delete("/", s.handleDeleteDocument)

				r.Route("/snapshots", func(r chi.Router) {
					r.Get("/", s.handleListSnapshots)
					r.Post("/", s.handleSaveSnapshot)
					r.Get("/{snapshotID}", s.handleRestoreSnapshot)
					r.Delete("/{snapshotID}", s.handleDeleteSnapshot)
				})
			})
		})
	})

	return r
}

// statusFor maps error codes to HTTP status codes. Unknown codes fall
// through to 500.
func statusFor(err error) int {
	switch flowerrors.GetCode(err) {
	case flowerrors.ErrCodeInvalidInput, flowerrors.ErrCodeInvalidDocument,
		flowerrors.ErrCodeInvalidWire, flowerrors.ErrCodeInvalidTemplate,
		flowerrors.ErrCodeInvalidFormat, flowerrors.ErrCodeCycle:
		return http.StatusBadRequest
	case flowerrors.ErrCodeNotFound, flowerrors.ErrCodeDocumentNotFound,
		flowerrors.ErrCodeSnapshotNotFound, flowerrors.ErrCodeTemplateNotFound:
		return http.StatusNotFound
	case flowerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case flowerrors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, map[string]string{
		"code":  string(flowerrors.GetCode(err)),
		"error": flowerrors.UserMessage(err),
	})
}

// decodeEnvelope reads and validates a document envelope body.
func decodeEnvelope(r *http.Request) (*docio.Envelope, error) {
	return docio.Read(r.Body)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
