package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// RunCommandRequest is the body of a run_command request.
type RunCommandRequest struct {
	CommandName string `json:"commandName"`
	Data        any    `json:"data"`
}

// RunCommandResponse is the body of a successful run_command response.
type RunCommandResponse struct {
	Output any `json:"output"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type adminServer struct {
	log    zerolog.Logger
	runner *CommandRunner
}

// NewAdminServer returns an HTTP handler which runs the command named in the JSON
// body on the runner.
func NewAdminServer(log zerolog.Logger, runner *CommandRunner) http.Handler {
	return &adminServer{
		log:    log.With().Str("component", "admin_server").Logger(),
		runner: runner,
	}
}

func (s *adminServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req RunCommandRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, NewInvalidAdminReqFormatError("%v", err))
		return
	}
	if req.CommandName == "" {
		s.writeError(w, http.StatusBadRequest, NewInvalidAdminReqErrorf("commandName is required"))
		return
	}

	output, err := s.runner.RunCommand(r.Context(), req.CommandName, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownCommand):
			s.writeError(w, http.StatusNotFound, err)
		case IsInvalidAdminParameterError(err):
			s.writeError(w, http.StatusBadRequest, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, RunCommandResponse{Output: output})
}

func (s *adminServer) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, errorResponse{Error: err.Error()})
}

func (s *adminServer) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn().Err(err).Msg("could not write admin response")
	}
}
