package manager

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/netmimic/netmimic/pkg/stub"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

// Server is the manager REST surface.
type Server struct {
	app *App
	srv *http.Server
}

// NewServer creates a server bound to addr.
func NewServer(addr string, app *App) *Server {
	s := &Server{app: app}
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	return s
}

// Handler builds the route table. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", s.handleEcho)
	mux.HandleFunc("/stubs", s.handleStubs)
	mux.HandleFunc("/stubs:reload", s.handleReloadStubs)
	mux.HandleFunc("/stubs:reset", s.handleResetStubs)
	mux.HandleFunc("/stubs/", s.handleStubByID)
	mux.HandleFunc("/yangs", s.handleYangs)
	mux.HandleFunc("/yangs/", s.handleYangByID)
	return logRequests(mux)
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	util.Infof("manager is running on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		util.Infof("received: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// errorEnvelope is the REST error body shape.
type errorEnvelope struct {
	ErrorCode    int         `json:"errorCode"`
	ErrorMessage string      `json:"errorMessage"`
	MoreInfo     interface{} `json:"moreInfo"`
}

func errorName(err error) string {
	switch {
	case errors.Is(err, util.ErrValidation):
		return "ValidationError"
	case errors.Is(err, util.ErrForbidden):
		return "ForbiddenError"
	case errors.Is(err, util.ErrNotFound):
		return "NotFoundError"
	case errors.Is(err, util.ErrConflict):
		return "ConflictError"
	case errors.Is(err, util.ErrFatal):
		return "FatalError"
	}
	return "InternalError"
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, util.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, util.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, util.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		util.Errorf("request failed: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeErrorStatus(w, status, errorName(err)+": "+err.Error())
}

func writeErrorStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorEnvelope{
		ErrorCode:    status,
		ErrorMessage: message,
		MoreInfo:     nil,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErrorStatus(w, http.StatusMethodNotAllowed, "MethodNotAllowedError: method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// stubView is the REST rendering of a stub: configs pretty-printed as XML
// text, metadata inline.
type stubView struct {
	ID              string                 `json:"id"`
	Description     string                 `json:"description"`
	Handler         string                 `json:"handler"`
	Yang            string                 `json:"yang"`
	Enabled         bool                   `json:"enabled"`
	CandidateConfig string                 `json:"candidateConfig"`
	RunningConfig   string                 `json:"runningConfig"`
	StartupConfig   string                 `json:"startupConfig"`
	Metadata        map[string]interface{} `json:"metadata"`
}

func newStubView(e *stub.Entity) stubView {
	return stubView{
		ID:              e.ID,
		Description:     e.Description,
		Handler:         e.Handler,
		Yang:            e.Yang,
		Enabled:         e.Enabled,
		CandidateConfig: e.CandidateConfig().String(),
		RunningConfig:   e.RunningConfig().String(),
		StartupConfig:   e.StartupConfig().String(),
		Metadata:        e.Metadata(),
	}
}

func newStubViews(entities []*stub.Entity) []stubView {
	views := make([]stubView, 0, len(entities))
	for _, e := range entities {
		views = append(views, newStubView(e))
	}
	return views
}

type yangView struct {
	ID string `json:"id"`
}

func newYangViews(entities []*yangtree.Entity) []yangView {
	views := make([]yangView, 0, len(entities))
	for _, e := range entities {
		views = append(views, yangView{ID: e.ID})
	}
	return views
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	headers := map[string]string{}
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}
	query := map[string][]string(r.URL.Query())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"echo": map[string]interface{}{
			"method":  r.Method,
			"path":    r.URL.Path,
			"query":   query,
			"headers": headers,
			"body":    string(body),
		},
	})
}

// stubBody is the request shape of stub create and update.
type stubBody struct {
	Stub *struct {
		ID          *string                `json:"id"`
		Description *string                `json:"description"`
		Handler     *string                `json:"handler"`
		Yang        *string                `json:"yang"`
		Enabled     *bool                  `json:"enabled"`
		Metadata    map[string]interface{} `json:"metadata"`
	} `json:"stub"`
}

func decodeStubBody(r *http.Request) (*stubBody, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var body stubBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, util.NewValidationError("invalid json format")
	}
	if body.Stub == nil {
		return nil, util.NewValidationError("'stub' is required")
	}
	return &body, nil
}

func (s *Server) handleStubs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createStub(w, r)
	case http.MethodGet:
		s.listStubs(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) createStub(w http.ResponseWriter, r *http.Request) {
	body, err := decodeStubBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req := body.Stub
	if req.ID == nil || *req.ID == "" {
		writeError(w, r, util.NewValidationError("'stub.id' is required"))
		return
	}
	if req.Handler == nil || *req.Handler == "" {
		writeError(w, r, util.NewValidationError("'stub.handler' is required"))
		return
	}

	description, yang, enabled := "", "", true
	if req.Description != nil {
		description = *req.Description
	}
	if req.Yang != nil {
		yang = *req.Yang
	}
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	entity, err := s.app.CreateStub(r.Context(), *req.ID, description, *req.Handler,
		yang, enabled, req.Metadata)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stub": newStubView(entity)})
}

func (s *Server) listStubs(w http.ResponseWriter, r *http.Request) {
	entities, err := s.app.ListStubs(r.Context(), r.URL.Query()["id"]...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stubs": newStubViews(entities)})
}

func (s *Server) handleReloadStubs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	entities, err := s.app.ReloadStubs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stubs": newStubViews(entities)})
}

func (s *Server) handleResetStubs(w http.ResponseWriter, r *http.Request) {
	util.Warn("the 'stubs:reset' method is deprecated, use 'stubs:reload' instead")
	s.handleReloadStubs(w, r)
}

// handleStubByID routes /stubs/{id}, /stubs/{id}/{property}, and
// /stubs/{id}:handle.
func (s *Server) handleStubByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/stubs/")

	if id, ok := strings.CutSuffix(rest, ":handle"); ok && !strings.Contains(id, "/") {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleNetworkOperation(w, r, id)
		return
	}

	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleStub(w, r, parts[0])
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.getStubProperty(w, r, parts[0], parts[1])
	default:
		writeError(w, r, util.NewNotFoundError("not found"))
	}
}

func (s *Server) handleStub(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		entity, err := s.app.GetStub(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"stub": newStubView(entity)})

	case http.MethodPatch:
		body, err := decodeStubBody(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch := StubPatch{
			Description: body.Stub.Description,
			Handler:     body.Stub.Handler,
			Yang:        body.Stub.Yang,
			Enabled:     body.Stub.Enabled,
			Metadata:    body.Stub.Metadata,
		}
		entity, err := s.app.UpdateStub(r.Context(), id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"stub": newStubView(entity)})

	case http.MethodDelete:
		if err := s.app.DeleteStub(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

// getStubProperty serves one stub field: configs as XML, metadata as
// JSON, scalars as plain text.
func (s *Server) getStubProperty(w http.ResponseWriter, r *http.Request, id, property string) {
	entity, err := s.app.GetStub(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := newStubView(entity)

	switch property {
	case "candidateConfig", "runningConfig", "startupConfig":
		configs := map[string]string{
			"candidateConfig": view.CandidateConfig,
			"runningConfig":   view.RunningConfig,
			"startupConfig":   view.StartupConfig,
		}
		w.Header().Set("content-type", "application/xml")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, configs[property])

	case "metadata":
		writeJSON(w, http.StatusOK, view.Metadata)

	case "id", "description", "handler", "yang":
		texts := map[string]string{
			"id":          view.ID,
			"description": view.Description,
			"handler":     view.Handler,
			"yang":        view.Yang,
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, texts[property])

	case "enabled":
		w.WriteHeader(http.StatusOK)
		if view.Enabled {
			io.WriteString(w, "true")
		} else {
			io.WriteString(w, "false")
		}

	default:
		writeError(w, r, util.NewNotFoundError("not found"))
	}
}

func (s *Server) handleNetworkOperation(w http.ResponseWriter, r *http.Request, id string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response, err := s.app.HandleNetworkOperation(r.Context(), id, body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	for name, value := range response.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(response.Code)
	io.WriteString(w, response.Body)
}

func (s *Server) handleYangs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	views := newYangViews(s.app.ListYangs(r.URL.Query()["id"]...))
	writeJSON(w, http.StatusOK, map[string]interface{}{"yangs": views})
}

func (s *Server) handleYangByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/yangs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, util.NewNotFoundError("not found"))
		return
	}
	entity, err := s.app.GetYang(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"yang": yangView{ID: entity.ID}})
}
