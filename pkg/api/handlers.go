package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/deckhand-io/deckhand/pkg/service"
	"github.com/go-chi/chi/v5"
)

type deployRequest struct {
	Action      string            `json:"action"`
	Image       string            `json:"image"`
	Environment string            `json:"environment"`
	PortMapping string            `json:"port_mapping"`
	EnvVars     map[string]string `json:"env_vars"`
}

type notifyRequest struct {
	Kind     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	jobID, err := s.svc.SubmitJob(req.Action, req.Image, req.Environment, req.PortMapping, req.EnvVars)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) handleRerun(w http.ResponseWriter, r *http.Request) {
	jobID, err := s.svc.RerunJob(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.JobStatus(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.svc.JobLogs(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": chi.URLParam(r, "jobID"),
		"logs":   logs,
	})
}

func (s *Server) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.BeginLogStream(chi.URLParam(r, "jobID")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "streaming"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	history, err := s.svc.JobHistory(limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleDeploymentMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.source.DeploymentSnapshot(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch deployment metrics")
		writeError(w, http.StatusInternalServerError, "failed to fetch deployment metrics")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := s.source.ContainerSnapshot(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch container stats")
		writeError(w, http.StatusInternalServerError, "failed to fetch container stats")
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.source.SystemSnapshot(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch system stats")
		writeError(w, http.StatusInternalServerError, "failed to fetch system stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHealth summarizes host and container health against fixed
// thresholds: cpu < 80%, memory < 85%, disk < 90%, at least one
// container running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"timestamp":      time.Now(),
		"overall_status": "healthy",
	}
	checks := map[string]interface{}{}

	stats, err := s.source.SystemSnapshot(r.Context())
	if err != nil {
		checks["system"] = map[string]interface{}{"status": "unknown"}
	} else {
		cpuOK := stats.CPUPercent < 80
		memOK := stats.MemoryPercent < 85
		diskOK := stats.DiskPercent < 90

		status := "healthy"
		if !cpuOK || !memOK || !diskOK {
			status = "warning"
			health["overall_status"] = "warning"
		}
		checks["system"] = map[string]interface{}{
			"status":    status,
			"cpu_ok":    cpuOK,
			"memory_ok": memOK,
			"disk_ok":   diskOK,
		}
	}

	containers, err := s.source.ContainerSnapshot(r.Context())
	if err != nil {
		checks["containers"] = map[string]interface{}{"status": "unknown"}
	} else {
		running := 0
		for _, c := range containers {
			if c.Status == "running" {
				running++
			}
		}

		status := "healthy"
		if running == 0 {
			status = "critical"
			health["overall_status"] = "critical"
		}
		checks["containers"] = map[string]interface{}{
			"status":             status,
			"total_containers":   len(containers),
			"running_containers": running,
		}
	}

	health["checks"] = checks
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Severity == "" {
		req.Severity = "info"
	}

	s.svc.PushNotification(req.Kind, req.Title, req.Message, req.Severity)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Server) handleStartMonitoring(w http.ResponseWriter, r *http.Request) {
	s.hub.StartPublishing()
	writeJSON(w, http.StatusOK, map[string]string{"status": "monitoring started"})
}

func (s *Server) handleStopMonitoring(w http.ResponseWriter, r *http.Request) {
	s.hub.StopPublishing()
	writeJSON(w, http.StatusOK, map[string]string{"status": "monitoring stopped"})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	s.hub.Subscribe(chi.URLParam(r, "connID"), chi.URLParam(r, "jobID"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	s.hub.Unsubscribe(chi.URLParam(r, "connID"), chi.URLParam(r, "jobID"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case service.IsInvalidArgument(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
