package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/definekit/pkg/archive"
	"github.com/matzehuels/definekit/pkg/buildinfo"
	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/pipeline"
	"github.com/matzehuels/definekit/pkg/render/lineage"
)

// Response headers describing a conversion.
const (
	HeaderCache    = "X-Definekit-Cache"
	HeaderWarnings = "X-Definekit-Warnings"
	HeaderErrors   = "X-Definekit-Errors"
	HeaderArchived = "X-Definekit-Archived"
)

// Content types of the serialized formats.
var contentTypes = map[string]string{
	pipeline.FormatXML:  "application/xml",
	pipeline.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// CheckResponse is the body of POST /v1/check.
type CheckResponse struct {
	Report *pipeline.Report `json:"report"`
	Cached bool             `json:"cached"`
	Valid  bool             `json:"valid"`
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Short()})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, cached, err := s.opts.Runner.CheckWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{Report: report, Cached: cached, Valid: !report.HasErrors()})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	opts.Format = q.Get("to")
	if opts.Format == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "query parameter to is required (xlsx or xml)"))
		return
	}
	if v := q.Get("define_version"); v != "" {
		opts.DefineVersion = v
	}
	if v := q.Get("language"); v != "" {
		opts.Language = v
	}
	if v := q.Get("stylesheet"); v != "" {
		opts.Stylesheet = v
	}
	if opts.OmitStylesheet, err = boolParam(q.Get("omit_stylesheet"), opts.OmitStylesheet); err != nil {
		s.writeError(w, r, err)
		return
	}
	doArchive, err := boolParam(q.Get("archive"), false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if doArchive && s.opts.Archive == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no archive is configured"))
		return
	}

	res, err := s.opts.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if doArchive {
		e, err := res.Archive(r.Context(), s.opts.Archive, opts.Format, s.opts.Now)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set(HeaderArchived, e.FileOID)
	}

	cacheState := "miss"
	if res.CacheInfo.ArtifactHit {
		cacheState = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", contentTypes[opts.Format])
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(opts.Filename, opts.Format)))
	h.Set(HeaderCache, cacheState)
	h.Set(HeaderWarnings, strconv.Itoa(res.Report.Diagnostics.Count(define.SeverityWarning)))
	h.Set(HeaderErrors, strconv.Itoa(res.Report.Diagnostics.Count(define.SeverityError)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifact)
}

func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	detailed, err := boolParam(q.Get("detailed"), false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = "dot"
	}
	if format != "dot" && format != "svg" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "format must be dot or svg, got %q", format))
		return
	}

	m, _, err := s.opts.Runner.Prepare(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := lineage.Build(m, lineage.Options{Display: q.Get("display")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dot := g.DOT()
	if detailed {
		dot = g.DetailedDOT()
	}
	if format == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = io.WriteString(w, dot)
		return
	}
	svg, err := lineage.RenderSVG(dot)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render lineage"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.opts.Archive.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*archive.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleArchiveGet(w http.ResponseWriter, r *http.Request) {
	oid := chi.URLParam(r, "fileOID")
	if err := errors.ValidateOID(oid); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.opts.Archive.Get(r.Context(), oid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatXML])
	w.Header().Set("Last-Modified", e.ArchivedAt.Format(http.TimeFormat))
	_, _ = w.Write(e.Document)
}

func (s *Server) handleArchiveDelete(w http.ResponseWriter, r *http.Request) {
	oid := chi.URLParam(r, "fileOID")
	if err := errors.ValidateOID(oid); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.opts.Archive.Delete(r.Context(), oid); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestOptions reads the body and the parse options shared by all
// pipeline routes.
func (s *Server) requestOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	opts := s.opts.Defaults
	opts.Logger = s.logger(r)
	opts.Now = s.opts.Now

	q := r.URL.Query()
	opts.Filename = q.Get("filename")
	if v := q.Get("input_format"); v != "" {
		opts.InputFormat = v
	}
	var err error
	if opts.MergeSupplemental, err = boolParam(q.Get("merge_supplemental"), opts.MergeSupplemental); err != nil {
		return opts, err
	}
	if opts.Refresh, err = boolParam(q.Get("refresh"), false); err != nil {
		return opts, err
	}

	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return opts, errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	opts.Input = data
	return opts, nil
}

func boolParam(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid boolean %q", raw)
	}
	return v, nil
}

// outputName derives the download name from the input name.
func outputName(filename, format string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "" || base == "." || base == "/" {
		base = "define"
	}
	return strings.TrimSuffix(base, path.Ext(base)) + "." + format
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= 500 {
		s.logger(r).Error("request failed", "err", err)
	}
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	body.Error.Message = errors.UserMessage(err)
	body.RequestID = requestIDFrom(r.Context())
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
