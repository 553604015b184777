package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iamoneai/laneflow/pkg/buildinfo"
	"github.com/iamoneai/laneflow/pkg/docio"
	"github.com/iamoneai/laneflow/pkg/engine"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/store"
	"github.com/iamoneai/laneflow/pkg/validate"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
	}
	if pinger, ok := s.store.(store.Pinger); ok {
		if err := pinger.Ping(r.Context()); err != nil {
			health["status"] = "degraded"
			health["store"] = err.Error()
			s.respondJSON(w, http.StatusServiceUnavailable, health)
			return
		}
		health["store"] = "ok"
	}
	s.respondJSON(w, http.StatusOK, health)
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.catalog.TemplatesByCategory())
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	env, err := decodeEnvelope(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	doc, err := docio.Import(env)
	if err != nil {
		s.respondError(w, err)
		return
	}

	result := validate.ValidateDocument(doc)
	s.respondJSON(w, http.StatusOK, result)
}

type runRequest struct {
	Document *docio.Envelope `json:"document"`
	Input    map[string]any  `json:"input"`
	Mode     string          `json:"mode"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Document == nil {
		s.respondError(w, flowerrors.New(flowerrors.ErrCodeInvalidInput, "run request requires a document"))
		return
	}
	doc, err := docio.Import(req.Document)
	if err != nil {
		s.respondError(w, err)
		return
	}

	mode := engine.Mode(req.Mode)
	if mode == "" {
		mode = engine.ModeSimulated
	}
	result, err := s.engine.Execute(r.Context(), doc, req.Input, engine.Options{Mode: mode})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if infos == nil {
		infos = []store.DocumentInfo{}
	}
	s.respondJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	env, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, env)
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	env, err := decodeEnvelope(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	// Round-trip through the document model so a stored envelope is
	// always structurally sound.
	if _, err := docio.Import(env); err != nil {
		s.respondError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.store.Save(r.Context(), id, env); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.ListSnapshots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}
	s.respondJSON(w, http.StatusOK, snaps)
}

type saveSnapshotRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req saveSnapshotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	env, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	snapshotID, err := s.store.SaveSnapshot(r.Context(), id, req.Name, env)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": snapshotID})
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	env, err := s.store.RestoreSnapshot(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "snapshotID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, env)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSnapshot(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "snapshotID")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
