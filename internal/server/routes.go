package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/lazypower/binder/internal/engine"
)

const (
	maxBodyBytes      = 32 << 20
	defaultHistory    = 50
	snapshotRetention = 1000
)

type scoresRequest struct {
	Atoms []json.RawMessage `json:"atoms"`
	NowMs *float64          `json:"now_ms"`
}

type entropyRequest struct {
	Atoms      []json.RawMessage `json:"atoms"`
	InboxCount *uint32           `json:"inbox_count"`
	NowMs      *float64          `json:"now_ms"`
	InboxCap   *uint32           `json:"inbox_cap"`
	TaskCap    *uint32           `json:"task_cap"`
}

type entropyResponse struct {
	engine.EntropyScore
	InboxCap    uint32           `json:"inboxCap"`
	TaskCap     uint32           `json:"taskCap"`
	InboxStatus engine.CapStatus `json:"inboxStatus"`
	TaskStatus  engine.CapStatus `json:"taskStatus"`
	SnapshotID  string           `json:"snapshotId,omitempty"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"result": s.engine.Ping()})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"core":   s.engine.Version(),
		"server": s.version,
	})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	var req scoresRequest
	if !s.decode(w, r, &req) {
		return
	}
	atoms, now, ok := s.atomsAndNow(w, req.Atoms, req.NowMs)
	if !ok {
		return
	}

	scores, err := s.engine.Scores(r.Context(), atoms, now)
	if err != nil {
		s.log.Warn("scoring aborted", "error", err, "atoms", len(atoms))
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleEntropy(w http.ResponseWriter, r *http.Request) {
	var req entropyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.InboxCount == nil {
		writeError(w, http.StatusBadRequest, "inbox_count required")
		return
	}
	atoms, now, ok := s.atomsAndNow(w, req.Atoms, req.NowMs)
	if !ok {
		return
	}

	caps, err := s.db.GetCapConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.InboxCap != nil {
		caps.InboxCap = *req.InboxCap
	}
	if req.TaskCap != nil {
		caps.TaskCap = *req.TaskCap
	}

	score := s.engine.Entropy(atoms, *req.InboxCount, caps.InboxCap, caps.TaskCap, now)
	resp := entropyResponse{
		EntropyScore: score,
		InboxCap:     caps.InboxCap,
		TaskCap:      caps.TaskCap,
		InboxStatus:  engine.StatusFor(score.InboxCount, caps.InboxCap),
		TaskStatus:   engine.StatusFor(score.OpenTasks, caps.TaskCap),
	}

	// History is best effort; a failed write never fails the computation.
	snap, err := s.db.SaveEntropySnapshot(score, caps, int64(now))
	if err != nil {
		s.log.Warn("save entropy snapshot", "error", err)
	} else {
		resp.SnapshotID = snap.ID
		if _, err := s.db.PruneEntropySnapshots(snapshotRetention); err != nil {
			s.log.Warn("prune entropy snapshots", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEntropyHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	snaps, err := s.db.ListEntropySnapshots(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleCompression(w http.ResponseWriter, r *http.Request) {
	var req scoresRequest
	if !s.decode(w, r, &req) {
		return
	}
	atoms, now, ok := s.atomsAndNow(w, req.Atoms, req.NowMs)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Compression(atoms, now))
}

func (s *Server) handleGetCaps(w http.ResponseWriter, r *http.Request) {
	caps, err := s.db.GetCapConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

func (s *Server) handlePutCaps(w http.ResponseWriter, r *http.Request) {
	var caps engine.CapConfig
	if !s.decode(w, r, &caps) {
		return
	}
	if err := s.db.SetCapConfig(caps); err != nil {
		if errors.Is(err, engine.ErrInvalidCaps) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("caps updated", "inbox_cap", caps.InboxCap, "task_cap", caps.TaskCap)
	writeJSON(w, http.StatusOK, caps)
}

// decode reads a JSON request body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

// atomsAndNow parses the raw atom list and resolves the evaluation instant.
func (s *Server) atomsAndNow(w http.ResponseWriter, raws []json.RawMessage, nowMs *float64) ([]engine.Atom, float64, bool) {
	if raws == nil {
		writeError(w, http.StatusBadRequest, "atoms required")
		return nil, 0, false
	}
	atoms, err := engine.ParseAtoms(raws)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrMalformedInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return nil, 0, false
	}

	now := float64(s.now().UnixMilli())
	if nowMs != nil {
		if *nowMs < 0 || math.IsNaN(*nowMs) || math.IsInf(*nowMs, 0) {
			writeError(w, http.StatusBadRequest, "now_ms must be a non-negative finite number")
			return nil, 0, false
		}
		now = *nowMs
	}
	return atoms, now, true
}
