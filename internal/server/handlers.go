package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/lvlup/internal/changelog"
	"github.com/nvandessel/lvlup/internal/progression"
	"github.com/nvandessel/lvlup/internal/ratelimit"
)

// ErrAssetMissing is returned when the model file cannot be served.
var ErrAssetMissing = errors.New("model file not found")

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 * 1024

// statusResponse is the body of soft failures and plain acknowledgements.
type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type updateResponse struct {
	Success    bool `json:"success"`
	TotalLevel int  `json:"total_level"`
	LevelUp    bool `json:"level_up"`
}

type historyResponse struct {
	Success bool     `json:"success"`
	Range   string   `json:"range"`
	Count   int      `json:"count"`
	Logs    []string `json:"logs"`
	Skipped int      `json:"skipped"`
}

type assetErrorResponse struct {
	Error string `json:"error"`
	Path  string `json:"path"`
	CWD   string `json:"cwd"`
}

// modelContentTypes covers model formats missing from the mime table.
var modelContentTypes = map[string]string{
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, ratelimit.OpStats) {
		return
	}

	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("failed to load stats", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, statusResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, ratelimit.OpUpdate) {
		return
	}

	req, err := decodeUpdateRequest(w, r)
	if err != nil {
		s.logger.Warn("rejected update request", "error", err)
		s.writeJSON(w, http.StatusBadRequest, statusResponse{Error: err.Error()})
		return
	}

	res, err := s.engine.ApplyDelta(r.Context(), req.Mutation(s.engine.Now(), "http"))
	switch {
	case errors.Is(err, progression.ErrUnknownTarget):
		s.writeJSON(w, http.StatusOK, statusResponse{Success: false})
		return
	case err != nil:
		s.logger.Error("failed to apply update", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, statusResponse{Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, updateResponse{
		Success:    true,
		TotalLevel: res.TotalLevel,
		LevelUp:    res.LeveledUp,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, ratelimit.OpHistory) {
		return
	}

	rng := changelog.ParseRange(r.URL.Query().Get("range"))
	res, err := s.engine.History(r.Context(), rng)
	switch {
	case errors.Is(err, changelog.ErrLogUnavailable):
		s.writeJSON(w, http.StatusOK, statusResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.Error("failed to read history", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, statusResponse{Error: err.Error()})
		return
	}

	logs := res.Lines()
	s.writeJSON(w, http.StatusOK, historyResponse{
		Success: true,
		Range:   rng.String(),
		Count:   len(logs),
		Logs:    logs,
		Skipped: len(res.Skipped),
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	f, info, err := openAsset(s.cfg.ModelPath)
	if err != nil {
		cwd, _ := os.Getwd()
		s.logger.Warn("model asset unavailable", "path", s.cfg.ModelPath, "cwd", cwd, "error", err)
		s.writeJSON(w, http.StatusNotFound, assetErrorResponse{
			Error: err.Error(),
			Path:  s.cfg.ModelPath,
			CWD:   cwd,
		})
		return
	}
	defer f.Close()

	if ct, ok := modelContentTypes[strings.ToLower(filepath.Ext(info.Name()))]; ok {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// openAsset opens a regular file for serving. Errors wrap ErrAssetMissing.
func openAsset(path string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrAssetMissing, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrAssetMissing, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s is a directory", ErrAssetMissing, path)
	}
	return f, info, nil
}

// allow applies the rate limit for op, writing 429 when exceeded.
func (s *Server) allow(w http.ResponseWriter, op string) bool {
	if err := s.cfg.Limits.Check(op); err != nil {
		s.logger.Warn("rate limited", "operation", op)
		s.writeJSON(w, http.StatusTooManyRequests, statusResponse{Error: err.Error()})
		return false
	}
	return true
}

// decodeUpdateRequest reads and validates the update body. Errors wrap
// progression.ErrBadRequest.
func decodeUpdateRequest(w http.ResponseWriter, r *http.Request) (*progression.UpdateRequest, error) {
	var req progression.UpdateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body: %v", progression.ErrBadRequest, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// writeJSON writes v with status. The header is already sent when encoding
// fails, so the failure is only logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to encode response", "status", status, "error", err)
	}
}
