package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/etl/internal/logging"
	"github.com/JonMunkholm/etl/internal/pipeline"
)

// Trigger response bodies.
const (
	successMessage = "Files processed successfully."
	failurePrefix  = "Error processing files: "
)

// RunResponse is the JSON body of a trigger response.
type RunResponse struct {
	Status  string                 `json:"status"`
	RunID   string                 `json:"run_id,omitempty"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Action  string                 `json:"action,omitempty"`
	Tables  []pipeline.TableResult `json:"tables,omitempty"`
}

// handleRun runs the pipeline once. The run is detached from client
// cancellation so a dropped connection does not leave outputs half written.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	res, err := s.runner.Run(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrRunInProgress) {
			status = http.StatusConflict
		}
		s.respondError(w, r, err, status, res)
		return
	}

	logging.FromContext(r.Context()).Info("trigger completed", "run_id", res.RunID)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, RunResponse{
			Status:  "ok",
			RunID:   res.RunID,
			Message: successMessage,
			Tables:  res.Tables,
		})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(successMessage))
}

// TableResponse describes one registered cleaner.
type TableResponse struct {
	Source  string   `json:"source"`
	Label   string   `json:"label"`
	Outputs []string `json:"outputs"`
}

// handleListTables returns the registered cleaners in kind order.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	defs := s.registry.All()
	tables := make([]TableResponse, len(defs))
	for i, def := range defs {
		tables[i] = TableResponse{
			Source:  def.Info.Source,
			Label:   def.Info.Label,
			Outputs: def.Info.Outputs,
		}
	}
	writeJSON(w, http.StatusOK, tables)
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string                    `json:"status"`
	Run    pipeline.RunLimiterStatus `json:"run"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Run:    s.runner.Limiter().Status(),
	})
}
