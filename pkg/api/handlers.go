package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hacking-linux/workflow/pkg/engine"
	"github.com/hacking-linux/workflow/pkg/flow"
	"github.com/hacking-linux/workflow/pkg/logging"
	"github.com/hacking-linux/workflow/pkg/storage"
)

// flowRequest is the payload for creating or updating a flow
type flowRequest struct {
	Name       string `json:"name,omitempty"`
	Definition string `json:"definition"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

// renameRequest is the payload for renaming a flow
type renameRequest struct {
	NewName string `json:"new_name"`
}

// runRequest is the payload for executing a flow
type runRequest struct {
	Context engine.Context `json:"context,omitempty"`
}

// runResponse is the serialized outcome of a flow run
type runResponse struct {
	ID         string         `json:"id"`
	Flow       string         `json:"flow"`
	Status     engine.Status  `json:"status"`
	Context    engine.Context `json:"context"`
	FailedStep string         `json:"failed_step,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List()
	if err != nil {
		s.logger.Error("failed to list flows", logging.F("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list flows")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := flow.Parse([]byte(req.Definition)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	err := s.store.Create(storage.FlowRecord{
		Name:       req.Name,
		Definition: req.Definition,
		Enabled:    enabled,
	})
	if errors.Is(err, storage.ErrFlowExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("failed to create flow", logging.F("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create flow")
		return
	}

	s.logger.Info("flow created", logging.F("flow", req.Name))
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Get(mux.Vars(r)["name"])
	if errors.Is(err, storage.ErrFlowNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get flow")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleUpdateFlow(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := flow.Parse([]byte(req.Definition)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := mux.Vars(r)["name"]
	s.modifyFlow(w, name, func() error {
		return s.store.Update(name, req.Definition)
	})
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.modifyFlow(w, name, func() error {
		return s.store.Delete(name)
	})
}

func (s *Server) handleRenameFlow(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewName == "" {
		writeError(w, http.StatusBadRequest, "new_name is required")
		return
	}

	name := mux.Vars(r)["name"]
	err := s.store.Rename(name, req.NewName)
	if errors.Is(err, storage.ErrFlowNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if errors.Is(err, storage.ErrFlowExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rename flow")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": req.NewName})
}

func (s *Server) handleEnableFlow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.modifyFlow(w, name, func() error {
		return s.store.Enable(name)
	})
}

func (s *Server) handleDisableFlow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.modifyFlow(w, name, func() error {
		return s.store.Disable(name)
	})
}

func (s *Server) handleRunFlow(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	name := mux.Vars(r)["name"]
	result, err := s.executor.Run(r.Context(), name, req.Context)

	resp := runResponse{
		ID:         result.ID,
		Flow:       result.Flow,
		Status:     result.Status,
		Context:    result.Context,
		FailedStep: result.FailedStep,
	}
	if err != nil {
		resp.Error = err.Error()
	}

	switch result.Status {
	case engine.StatusNotFound:
		writeJSON(w, http.StatusNotFound, resp)
	case engine.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) modifyFlow(w http.ResponseWriter, name string, op func() error) {
	err := op()
	if errors.Is(err, storage.ErrFlowNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("flow operation failed",
			logging.F("flow", name),
			logging.F("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "flow operation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
