package httpapi

import (
	"encoding/json"
	"net/http"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/commands"
	"github.com/pavel242242/gd-hackathon-2024/components/dashboard/queries"
)

// SessionHeader carries the session id for JSON clients.
const SessionHeader = "X-Session-ID"

// Handlers exposes JSON endpoints backed by the shared executor. Read
// endpoints are mounted only when their querier is set.
type Handlers struct {
	Executor   Executor
	Pages      gocommand.Querier[dashboard.PageRequest, dashboard.Page]
	Workspaces gocommand.Querier[queries.WorkspacesInput, []dashboard.Workspace]
	Viewer     func(*http.Request) dashboard.ViewerContext
}

// Mount registers the JSON endpoints on mux under prefix.
func (h *Handlers) Mount(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/datasources", h.HandleCreateDataSource)
	mux.HandleFunc("POST "+prefix+"/datasources/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
		h.HandlePublishModel(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST "+prefix+"/ai/ask", h.HandleAskAI)
	mux.HandleFunc("POST "+prefix+"/ai/refresh", h.HandleRefreshAI)
	mux.HandleFunc("POST "+prefix+"/ai/clear", h.HandleClearAI)
	if h.Pages != nil {
		mux.HandleFunc("GET "+prefix+"/page", h.HandlePage)
	}
	if h.Workspaces != nil {
		mux.HandleFunc("GET "+prefix+"/workspaces", h.HandleWorkspaces)
	}
}

// HandlePage renders every panel as JSON. Query parameters toggle and
// select panels the same way the HTML page does.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	req := dashboard.PageRequestFromValues(h.viewer(r), r.URL.Query())
	page, err := h.Pages.Query(r.Context(), req)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) HandleWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.Workspaces.Query(r.Context(), queries.WorkspacesInput{})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workspaces": workspaces})
}

type askPayload struct {
	Question string `json:"question"`
}

func (h *Handlers) HandleCreateDataSource(w http.ResponseWriter, r *http.Request) {
	var connector dashboard.SnowflakeConnector
	if err := json.NewDecoder(r.Body).Decode(&connector); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var result dashboard.DataSourceResult
	err := h.Executor.CreateDataSource(r.Context(), commands.CreateDataSourceInput{Connector: connector, Result: &result})
	if err != nil {
		writeJSON(w, StatusFor(err), map[string]any{
			"error": ErrorBody(err).Error,
			"echo":  result.Echo,
		})
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handlers) HandlePublishModel(w http.ResponseWriter, r *http.Request, dataSourceID string) {
	var report dashboard.PipelineReport
	err := h.Executor.PublishModel(r.Context(), commands.PublishModelInput{DataSourceID: dataSourceID, Report: &report})
	if err != nil {
		writeJSON(w, StatusFor(err), map[string]any{
			"error":  ErrorBody(err).Error,
			"report": report,
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) HandleAskAI(w http.ResponseWriter, r *http.Request) {
	var payload askPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var resp dashboard.ChatResponse
	input := commands.AskAIInput{Viewer: h.viewer(r), Question: payload.Question, Response: &resp}
	if err := h.Executor.AskAI(r.Context(), input); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) HandleRefreshAI(w http.ResponseWriter, r *http.Request) {
	var result dashboard.VisualizationResult
	if err := h.Executor.RefreshAI(r.Context(), commands.RefreshAIInput{Viewer: h.viewer(r), Result: &result}); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) HandleClearAI(w http.ResponseWriter, r *http.Request) {
	if err := h.Executor.ClearAI(r.Context(), commands.ClearAIInput{Viewer: h.viewer(r)}); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) viewer(r *http.Request) dashboard.ViewerContext {
	if h.Viewer != nil {
		return h.Viewer(r)
	}
	return dashboard.ViewerContext{SessionID: r.Header.Get(SessionHeader)}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
