package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/fairmed-lab/fairmed/pkg/domain/model"
	"github.com/fairmed-lab/fairmed/pkg/domain/types"
	"github.com/fairmed-lab/fairmed/pkg/usecase"
	"github.com/fairmed-lab/fairmed/pkg/utils/errutil"
	"github.com/fairmed-lab/fairmed/pkg/utils/safe"
)

// Error codes returned in the "code" field of error responses
const (
	codeInvalidRequest   = "invalid_request"
	codeUnknownScenario  = "unknown_scenario"
	codeNotImplemented   = "not_implemented"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeInternal         = "internal"
)

type analyzeRequest struct {
	Scenario  *string `json:"scenario"`
	UseSample *bool   `json:"use_sample"`
}

type mitigateRequest struct {
	Scenario   *string `json:"scenario"`
	Mitigation *string `json:"mitigation"`
}

type scenariosResponse struct {
	Scenarios []*model.ScenarioSummary `json:"scenarios"`
}

func healthHandler(uc AnalysisUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, uc.Health(r.Context()))
	}
}

func scenariosHandler(uc AnalysisUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, scenariosResponse{Scenarios: uc.ListScenarios(r.Context())})
	}
}

func analyzeHandler(uc AnalysisUseCase, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := decodeJSON(w, r, maxBodyBytes, &req, "scenario", "use_sample"); err != nil {
			handleError(w, r, err)
			return
		}
		if req.Scenario == nil {
			handleError(w, r, goerr.Wrap(usecase.ErrInvalidRequest, "scenario is required"))
			return
		}

		// use_sample defaults to true when omitted
		useSample := true
		if req.UseSample != nil {
			useSample = *req.UseSample
		}

		result, err := uc.Analyze(r.Context(), usecase.AnalyzeInput{
			Scenario:  types.ScenarioID(*req.Scenario),
			UseSample: useSample,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, result)
	}
}

func mitigateHandler(uc AnalysisUseCase, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mitigateRequest
		if err := decodeJSON(w, r, maxBodyBytes, &req, "scenario", "mitigation"); err != nil {
			handleError(w, r, err)
			return
		}
		if req.Scenario == nil {
			handleError(w, r, goerr.Wrap(usecase.ErrInvalidRequest, "scenario is required"))
			return
		}

		var mitigation string
		if req.Mitigation != nil {
			mitigation = *req.Mitigation
		}

		result, err := uc.Mitigate(r.Context(), usecase.MitigateInput{
			Scenario:   types.ScenarioID(*req.Scenario),
			Mitigation: mitigation,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, result)
	}
}

// decodeJSON reads a single JSON object from the body. Any failure, including
// an oversized body, a field of the wrong type or a field name that differs
// from its canonical form only by case, is an invalid request.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBodyBytes int64, dst any, fields ...string) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer safe.Close(r.Context(), body)

	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return goerr.Wrap(usecase.ErrInvalidRequest, "request body too large", goerr.V("limit", maxErr.Limit))
		}
		return goerr.Wrap(usecase.ErrInvalidRequest, "failed to read request body", goerr.V("reason", err.Error()))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return goerr.Wrap(usecase.ErrInvalidRequest, "request body is required")
		}

		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return goerr.Wrap(usecase.ErrInvalidRequest, "field has wrong type",
				goerr.V("field", typeErr.Field), goerr.V("expected", typeErr.Type.String()))
		}

		return goerr.Wrap(usecase.ErrInvalidRequest, "request body is not valid JSON", goerr.V("reason", err.Error()))
	}

	if dec.More() {
		return goerr.Wrap(usecase.ErrInvalidRequest, "request body must contain a single JSON object")
	}

	return checkFieldNames(data, fields)
}

// checkFieldNames rejects keys that encoding/json would match to a field
// case-insensitively. Unrelated keys are ignored.
func checkFieldNames(data []byte, fields []string) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return goerr.Wrap(usecase.ErrInvalidRequest, "request body must be a JSON object", goerr.V("reason", err.Error()))
	}

	for key := range keys {
		for _, field := range fields {
			if key != field && strings.EqualFold(key, field) {
				return goerr.Wrap(usecase.ErrInvalidRequest, "field name must be lowercase",
					goerr.V("field", key), goerr.V("expected", field))
			}
		}
	}
	return nil
}

// handleError maps use case errors onto HTTP status codes
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest, codeInvalidRequest)
	case errors.Is(err, model.ErrUnknownScenario):
		errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound, codeUnknownScenario)
	case errors.Is(err, usecase.ErrLiveDataUnsupported):
		errutil.HandleHTTP(r.Context(), w, err, http.StatusNotImplemented, codeNotImplemented)
	default:
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError, codeInternal)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"),
			http.StatusInternalServerError, codeInternal)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
