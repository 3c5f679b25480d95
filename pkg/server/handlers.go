package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"

	"github.com/matzehuels/gauzecut/pkg/buildinfo"
	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/experiment"
	"github.com/matzehuels/gauzecut/pkg/httputil"
	"github.com/matzehuels/gauzecut/pkg/pattern"
	"github.com/matzehuels/gauzecut/pkg/pipeline"
	"github.com/matzehuels/gauzecut/pkg/search"
	"github.com/matzehuels/gauzecut/pkg/search/perm"
	"github.com/matzehuels/gauzecut/pkg/segment"
	"github.com/matzehuels/gauzecut/pkg/sim"
)

// SegmentRequest is the body of POST /v1/segments.
type SegmentRequest struct {
	Pattern     json.RawMessage     `json:"pattern"`
	Orientation segment.Orientation `json:"orientation,omitempty"`
	Tolerance   float64             `json:"tolerance,omitempty"`
}

// SegmentResponse lists the notches and segments of a pattern.
type SegmentResponse struct {
	segment.Result
	Points [][]orb.Point `json:"points"`
}

// TrialRequest is the body of POST /v1/trials. An empty Order cuts the
// segments in their natural order. Sim fields that are left out keep their
// defaults.
type TrialRequest struct {
	SegmentRequest
	Order       []int       `json:"order,omitempty"`
	Anchor      *orb.Point  `json:"anchor,omitempty"`
	Sim         *sim.Config `json:"sim,omitempty"`
	ScoreOffset float64     `json:"score_offset,omitempty"`
}

// TrialResponse is the outcome of one trial.
type TrialResponse struct {
	sim.Outcome
	Order      []int       `json:"order"`
	Trajectory []orb.Point `json:"trajectory"`
	Cached     bool        `json:"cached"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if err := httputil.DecodeJSON(r, &req, s.opts.BodyLimit); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, opts, err := req.resolve()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	seg, err := s.runner.Segment(p, opts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := SegmentResponse{Result: seg, Points: make([][]orb.Point, len(seg.Segments))}
	for i, sg := range seg.Segments {
		resp.Points[i] = segment.Points(p.Trajectory, sg)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrial(w http.ResponseWriter, r *http.Request) {
	cfg := sim.DefaultConfig()
	req := TrialRequest{Sim: &cfg}
	if err := httputil.DecodeJSON(r, &req, s.opts.BodyLimit); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, opts, err := req.resolve()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Sim != nil {
		opts.Sim = *req.Sim
		opts.Sim.SetDefaults()
		if err := opts.Sim.Validate(); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	opts.ScoreOffset = req.ScoreOffset

	seg, err := s.runner.Segment(p, opts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	order := req.Order
	if len(order) == 0 {
		order = perm.Seq(len(seg.Segments))
	}
	if err := checkOrder(order, len(seg.Segments)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ev, err := s.runner.Evaluator(r.Context(), p, opts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := ev.Evaluate(r.Context(), search.Strokes(p.Trajectory, seg.Segments, order), req.Anchor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TrialResponse{
		Outcome:    out,
		Order:      order,
		Trajectory: search.Trajectory(p.Trajectory, seg.Segments, order),
		Cached:     out.Cached,
	})
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	name := chi.URLParam(r, "name")
	variants, err := store.List(r.Context(), name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(variants) == 0 {
		httputil.WriteError(w, gerrors.New(gerrors.ErrCodeNotFound, "experiment %s not found", name))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"name": name, "variants": variants})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	variant := experiment.Variant(chi.URLParam(r, "variant"))
	rec, err := store.Load(r.Context(), chi.URLParam(r, "name"), variant)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) store() (experiment.Store, error) {
	if s.runner == nil || s.runner.Store == nil {
		return nil, gerrors.New(gerrors.ErrCodeNotFound, "no record store configured")
	}
	return s.runner.Store, nil
}

// resolve parses the inline pattern and builds pipeline options for it.
func (req SegmentRequest) resolve() (*pattern.Pattern, pipeline.Options, error) {
	if len(req.Pattern) == 0 {
		return nil, pipeline.Options{}, gerrors.New(gerrors.ErrCodeInvalidInput, "pattern is required")
	}
	p, err := pattern.ReadJSON(bytes.NewReader(req.Pattern))
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	opts := pipeline.DefaultOptions()
	if req.Orientation != "" {
		o, err := segment.ParseOrientation(string(req.Orientation))
		if err != nil {
			return nil, pipeline.Options{}, err
		}
		opts.Orientation = o
	}
	if req.Tolerance > 0 {
		opts.Tolerance = req.Tolerance
	}
	return p, opts, nil
}

// checkOrder verifies that order is a permutation of 0..k-1.
func checkOrder(order []int, k int) error {
	if len(order) != k {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "order has %d entries, pattern has %d segments", len(order), k)
	}
	sorted := slices.Sorted(slices.Values(order))
	if !slices.Equal(sorted, perm.Seq(k)) {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "order %v is not a permutation of the segments", order)
	}
	return nil
}
