package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NyankoNyan/buildgen/pkg/buildinfo"
	"github.com/NyankoNyan/buildgen/pkg/cache"
	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/pipeline"
	"github.com/NyankoNyan/buildgen/pkg/plan"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type listResponse struct {
	Plans []string `json:"plans"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

// handleCreatePlan generates one building of the uploaded config and stores
// the plan.
func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := config.FormatYAML
	if f := q.Get("format"); f != "" {
		var err error
		if format, err = config.ParseFormat(f); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	opts := pipeline.Options{
		Building: q.Get("building"),
		Formats:  []string{string(plan.FormatJSON)},
		Logger:   s.logger,
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid seed %q", v))
			return
		}
		opts.Seed = seed
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config"))
		return
	}
	if len(data) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "empty config"))
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.NewSource("request", format, data), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	br := result.Buildings[0]
	if err := s.store.Put(r.Context(), br.Plan); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store plan"))
		return
	}

	w.Header().Set("Location", "/v1/plans/"+br.Plan.ID)
	writeBytes(w, http.StatusCreated, "application/json", br.Artifacts[string(plan.FormatJSON)])
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, listResponse{Plans: ids})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadPlan(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := plan.MarshalJSON(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBytes(w, http.StatusOK, "application/json", data)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidatePlanID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, blocks := range []bool{false, true} {
		key := s.runner.Keyer.GraphKey(id, cache.GraphKeyOpts{Format: string(plan.FormatSVG), Blocks: blocks})
		if err := s.runner.Cache.Delete(r.Context(), key); err != nil {
			s.logger.Warn("cache delete failed", "key", key, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGraph renders the link graph of a stored plan. Pass blocks=true for
// one node per block. Rendered graphs are cached.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidatePlanID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	blocks, _ := strconv.ParseBool(r.URL.Query().Get("blocks"))
	key := s.runner.Keyer.GraphKey(id, cache.GraphKeyOpts{Format: string(plan.FormatSVG), Blocks: blocks})

	if data, hit, err := s.runner.Cache.Get(r.Context(), key); err == nil && hit {
		writeBytes(w, http.StatusOK, "image/svg+xml", data)
		return
	}

	p, err := s.loadPlan(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svg, err := plan.RenderSVG(plan.ToDOT(p, plan.DOTOptions{Blocks: blocks}))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render graph"))
		return
	}
	if err := s.runner.Cache.Set(r.Context(), key, svg, cache.TTLGraph); err != nil {
		s.logger.Warn("cache write failed", "key", key, "err", err)
	}
	writeBytes(w, http.StatusOK, "image/svg+xml", svg)
}

func (s *Server) loadPlan(r *http.Request) (*plan.Plan, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidatePlanID(id); err != nil {
		return nil, err
	}
	p, err := s.store.Get(r.Context(), id)
	if stderrors.Is(err, plan.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "plan %s", id)
	}
	return p, err
}

// writeError maps err to a status code and a JSON error body. Server-side
// failures are logged; their details are not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := string(errors.GetCode(err))
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = http.StatusText(status)
	}
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeBytes(w, status, "application/json", data)
}

func writeBytes(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
