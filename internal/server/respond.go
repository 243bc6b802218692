package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/driftboard/pkg/diagram"
	errs "github.com/matzehuels/driftboard/pkg/errors"
)

type errorBody struct {
	Error struct {
		Code    errs.Code `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}

// respondError maps err to a status code and writes it as a coded error.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	var body errorBody
	body.Error.Code = code
	body.Error.Message = errs.UserMessage(err)
	s.respondJSON(w, status, body)
}

func classify(err error) (int, errs.Code) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errs.ErrCodeInvalidInput
	case errors.Is(err, diagram.ErrSelfLoop), errors.Is(err, diagram.ErrIDsExhausted):
		return http.StatusBadRequest, errs.ErrCodeInvalidInput
	case errors.Is(err, diagram.ErrUnknownSourceNode), errors.Is(err, diagram.ErrUnknownTargetNode):
		return http.StatusNotFound, errs.ErrCodeNodeNotFound
	case errs.IsNotFound(err):
		return http.StatusNotFound, errs.GetCode(err)
	case errs.IsInvalid(err):
		return http.StatusBadRequest, errs.GetCode(err)
	case errs.Is(err, errs.ErrCodeUnsupported):
		return http.StatusBadRequest, errs.ErrCodeUnsupported
	case errs.Is(err, errs.ErrCodeStorage), errs.Is(err, errs.ErrCodeUnavailable):
		return http.StatusServiceUnavailable, errs.GetCode(err)
	}
	return http.StatusInternalServerError, errs.ErrCodeInternal
}

// decode reads a JSON body into v and validates its struct tags.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return errs.New(errs.ErrCodeInvalidInput, "request body is empty")
		}
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body")
	}
	return errs.ValidateStruct(v)
}

func nodeParam(r *http.Request) (diagram.NodeID, error) {
	id, err := intParam(r, "id")
	return diagram.NodeID(id), err
}

func edgeParam(r *http.Request) (diagram.EdgeID, error) {
	id, err := intParam(r, "id")
	return diagram.EdgeID(id), err
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, errs.New(errs.ErrCodeInvalidInput, "invalid %s %q", name, raw)
	}
	return id, nil
}
