package web

// errors.go answers failed trigger requests.
//
// The technical error is logged with the request id. Plain-text clients get
// "Error processing files: <error>"; JSON clients additionally get the
// support code and action from core.MapError and the per-table breakdown
// when the run got that far.

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/etl/internal/core"
	"github.com/JonMunkholm/etl/internal/logging"
	"github.com/JonMunkholm/etl/internal/pipeline"
)

// respondError writes a failed trigger response. res may be nil when the run
// never started.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int, res *pipeline.RunResult) {
	userMsg := core.MapError(err)

	var runID string
	var tables []pipeline.TableResult
	if res != nil {
		runID = res.RunID
		tables = res.Tables
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"run_id", runID,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if wantsJSON(r) {
		writeJSON(w, statusCode, RunResponse{
			Status:  "error",
			RunID:   runID,
			Message: userMsg.Message,
			Error:   err.Error(),
			Code:    userMsg.Code,
			Action:  userMsg.Action,
			Tables:  tables,
		})
		return
	}
	http.Error(w, failurePrefix+err.Error(), statusCode)
}

// wantsJSON checks if the client asked for JSON. The trigger answers plain
// text by default.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.URL.Query().Get("format") == "json"
}
