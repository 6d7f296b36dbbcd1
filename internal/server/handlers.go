package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/buildinfo"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/pipeline"
)

var contentTypes = map[string]string{
	string(bpmn.FormatJSON): "application/json",
	string(bpmn.FormatYAML): "application/yaml",
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatPNG:      "image/png",
	pipeline.FormatPDF:      "application/pdf",
	pipeline.FormatDOT:      "text/vnd.graphviz",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Current()})
}

// handleLayout answers with the laid-out model, encoded as the output query
// parameter asks (json by default).
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	data, format, opts, err := s.readRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, encoded, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), data, format, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if bpmn.Format(opts.Output) == bpmn.FormatYAML {
		if encoded, err = bpmn.Encode(m, bpmn.FormatYAML); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeBody(w, contentTypes[opts.Output], encoded, hit)
}

// handleRender lays out the model and answers with a single artifact in the
// format query parameter (svg by default).
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	data, format, opts, err := s.readRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := r.URL.Query().Get("format")
	if out == "" {
		out = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(out); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{out}

	result, err := s.runner.Execute(r.Context(), data, format, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, contentTypes[out], result.Artifacts[out], result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
}

// readRequest reads the model document and builds the options from the
// query string layered over the server defaults.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) ([]byte, bpmn.Format, pipeline.Options, error) {
	q := r.URL.Query()

	format := bpmn.FormatJSON
	if in := q.Get("input"); in != "" {
		if !pipeline.ValidOutputs[in] {
			return nil, "", pipeline.Options{}, errors.New(errors.ErrCodeInvalidFormat, "invalid input encoding %q (must be json or yaml)", in)
		}
		format = bpmn.Format(in)
	}

	var opts pipeline.Options
	opts.Orientation = q.Get("orientation")
	opts.Output = q.Get("output")
	flags := []struct {
		name string
		set  func(bool)
	}{
		{"lanes_as_groups", opts.SetLanesAsGroups},
		{"detailed", opts.SetDetailed},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, "", pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", f.name, v)
		}
		f.set(b)
	}
	opts = opts.Merge(s.defaults)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, "", pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) == 0 {
		return nil, "", pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "empty request body")
	}
	return data, format, opts, nil
}

// errorBody is the JSON document returned for failed requests.
type errorBody struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	ElementID string      `json:"element_id,omitempty"`
	ProcessID string      `json:"process_id,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{
		Code:      errors.GetCode(err),
		Message:   errors.UserMessage(err),
		ElementID: errors.ElementID(err),
		RequestID: middleware.GetReqID(r.Context()),
	}
	if le, ok := errors.AsLayout(err); ok {
		body.ProcessID = le.ProcessID
		body.Message = le.Message
	}
	if body.Code == "" {
		body.Code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		body.Message = "internal error"
	}
	writeJSON(w, status, struct {
		Error errorBody `json:"error"`
	}{body})
}

// statusFor maps error codes to HTTP statuses: bad documents are 400,
// well-formed models that cannot be laid out are 422.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidModel,
		errors.ErrCodeInvalidID, errors.ErrCodeDanglingFlow, errors.ErrCodeUnresolvedAttachment:
		return http.StatusBadRequest
	case errors.ErrCodeLaneConflict, errors.ErrCodeBoundaryIntersection,
		errors.ErrCodeDepthExceeded, errors.ErrCodeInvalidRanking:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBody(w http.ResponseWriter, contentType string, body []byte, cached bool) {
	w.Header().Set("Content-Type", contentType)
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
