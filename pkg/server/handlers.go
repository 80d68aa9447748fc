package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mindmap/pkg/buildinfo"
	"github.com/matzehuels/mindmap/pkg/editor"
	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/store"
)

type errorBody struct {
	Error string `json:"error"`
}

type mapBody struct {
	Map *mindmap.Map `json:"map"`
}

type saveRequest struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Map   json.RawMessage `json:"map"`
}

type saveResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt int64  `json:"updatedAt"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := merrors.HTTPStatus(err)
	msg := merrors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err := dec.Decode(v); err != nil {
		return merrors.Wrap(merrors.ErrCodeInvalidInput, err, "invalid JSON")
	}
	return nil
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// handleGetMaps lists maps, or returns one map when ?id= is given.
// An id of "0" also lists, for compatibility with older clients.
func (s *Server) handleGetMaps(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" || id == "0" {
		list, err := s.store.List(r.Context())
		if err != nil {
			s.writeError(w, r, merrors.Wrap(merrors.ErrCodeStorage, err, "list maps"))
			return
		}
		if list == nil {
			list = []store.Summary{}
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	if m, ok := s.peek(id); ok {
		writeJSON(w, http.StatusOK, mapBody{Map: m})
		return
	}
	m, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapBody{Map: m})
}

// handleSaveMap stores a whole map sent by a client. The map is validated
// before anything is written; the client's copy replaces any open session.
func (s *Server) handleSaveMap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req saveRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(bytes.TrimSpace(req.Map)) == 0 {
		s.writeError(w, r, merrors.New(merrors.ErrCodeInvalidInput, "missing map"))
		return
	}
	if req.ID == "" {
		req.ID = mindmap.NewMapID()
	}
	if err := merrors.ValidateMapID(req.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Title == "" {
		req.Title = mindmap.DefaultTitle
	}
	if err := merrors.ValidateTitle(req.Title); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := mindmap.ReadJSON(bytes.NewReader(req.Map))
	if err != nil {
		s.writeError(w, r, merrors.Wrap(merrors.ErrCodeInvalidMap, err, "map rejected"))
		return
	}

	now := time.Now().UnixMilli()
	m.ID = req.ID
	m.Title = req.Title
	m.CreatedAt = now
	m.UpdatedAt = now
	existing, err := s.store.Get(ctx, req.ID)
	switch {
	case err == nil:
		m.CreatedAt = existing.CreatedAt
	case errors.Is(err, store.ErrNotFound), merrors.Is(err, merrors.ErrCodeInvalidMap):
	default:
		s.writeError(w, r, merrors.Wrap(merrors.ErrCodeStorage, err, "load map %s", req.ID))
		return
	}

	if err := s.retire(ctx, req.ID, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Save(ctx, m); err != nil {
		s.writeError(w, r, merrors.Wrap(merrors.ErrCodeStorage, err, "save map %s", req.ID))
		return
	}
	s.logger.Info("Saved map", "id", m.ID, "title", m.Title, "nodes", m.Len())
	writeJSON(w, http.StatusOK, saveResponse{ID: m.ID, Title: m.Title, UpdatedAt: m.UpdatedAt})
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := merrors.ValidateMapID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.retire(r.Context(), id, false)
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, merrors.Wrap(merrors.ErrCodeStorage, err, "delete map %s", id))
		return
	}
	s.logger.Info("Deleted map", "id", id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Layout())
}

func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	var op editor.Op
	if err := decodeBody(w, r, &op); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := sess.Do(op)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
