// Package pipeline runs a complete cutting experiment.
//
// This package implements the load → segment → search → pin search → record
// pipeline shared by the CLI and the HTTP API. By centralizing it, both entry
// points produce identical records for identical options.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: read the pattern file, or author a rectangle when it is missing
//  2. Segment: split the boundary trajectory at its notches
//  3. Search: order the segments without an anchor and replay the best
//  4. Pin: search every candidate anchor and replay the best one
//
// Stages 3 and 4 each produce an [experiment.Record]; the runner saves both
// when it has a store.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Pattern = "shapes/square.json"
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Hold.BestScore)
package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/gauzecut/pkg/cloth"
	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/experiment"
	"github.com/matzehuels/gauzecut/pkg/pattern"
	"github.com/matzehuels/gauzecut/pkg/pinsearch"
	"github.com/matzehuels/gauzecut/pkg/search"
	"github.com/matzehuels/gauzecut/pkg/segment"
	"github.com/matzehuels/gauzecut/pkg/sim"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultOrientation is the side the tool approaches from.
	DefaultOrientation = segment.Right

	// DefaultAuthorStep is the waypoint spacing of authored rectangles.
	DefaultAuthorStep = 10.0
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for an experiment. It is read from
// TOML config files and from JSON API requests.
type Options struct {
	// Name is the experiment name records are stored under. It defaults to
	// the pattern file's base name.
	Name    string `toml:"name" json:"name,omitempty"`
	Pattern string `toml:"pattern" json:"pattern,omitempty"`

	// Width and Height author a rectangle of that extent, centred on the
	// sheet, when Pattern does not exist yet.
	Width      float64 `toml:"width" json:"width,omitempty"`
	Height     float64 `toml:"height" json:"height,omitempty"`
	AuthorStep float64 `toml:"author_step" json:"author_step,omitempty"`

	Orientation segment.Orientation `toml:"orientation" json:"orientation,omitempty"`
	Tolerance   float64             `toml:"tolerance" json:"tolerance,omitempty"`

	// ScoreOffset is added to every score. Zero uses the number of member
	// particles, so a perfect separation scores the shape's size.
	ScoreOffset float64 `toml:"score_offset" json:"score_offset,omitempty"`

	Sim    sim.Config     `toml:"sim" json:"sim"`
	Search search.Options `toml:"search" json:"search"`
	Pin    pinsearch.Grid `toml:"pin" json:"pin"`

	// SkipHold stops after the anchor-free search.
	SkipHold bool `toml:"skip_hold" json:"skip_hold,omitempty"`

	Logger *log.Logger `toml:"-" json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns options with every section at its defaults.
func DefaultOptions() Options {
	o := Options{
		Sim: sim.DefaultConfig(),
		Pin: pinsearch.DefaultGrid(),
	}
	o.SetDefaults()
	return o
}

// LoadOptions reads a TOML config file over DefaultOptions. Keys missing
// from the file keep their defaults.
func LoadOptions(path string) (Options, error) {
	o := DefaultOptions()
	md, err := toml.DecodeFile(path, &o)
	if err != nil {
		return Options{}, gerrors.Wrap(gerrors.ErrCodeLoad, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, gerrors.New(gerrors.ErrCodeLoad, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return o, nil
}

// WriteOptions encodes o as TOML.
func WriteOptions(o Options, w io.Writer) error {
	return toml.NewEncoder(w).Encode(o)
}

// SetDefaults fills zero-valued fields with defaults.
func (o *Options) SetDefaults() {
	if o.Name == "" && o.Pattern != "" {
		o.Name = strings.TrimSuffix(filepath.Base(o.Pattern), filepath.Ext(o.Pattern))
	}
	if o.AuthorStep == 0 {
		o.AuthorStep = DefaultAuthorStep
	}
	if o.Orientation == "" {
		o.Orientation = DefaultOrientation
	}
	if o.Tolerance == 0 {
		o.Tolerance = segment.DefaultTolerance
	}
	if o.Sim.Mesh == (cloth.MeshSpec{}) {
		o.Sim.Mesh = cloth.DefaultMeshSpec()
	}
	o.Sim.SetDefaults()
	o.Search.SetDefaults()
	o.Pin.SetDefaults()
}

// ValidateAndSetDefaults applies defaults and checks every section.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if o.Pattern == "" {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "pattern is required")
	}
	if err := gerrors.ValidateExperimentName(o.Name); err != nil {
		return err
	}
	if _, err := segment.ParseOrientation(string(o.Orientation)); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "pattern extent must not be negative")
	}
	if err := o.Sim.Validate(); err != nil {
		return err
	}
	if err := o.Search.Validate(); err != nil {
		return err
	}
	if err := o.Pin.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// Authoring reports whether the run authors a new pattern.
func (o *Options) Authoring() bool {
	if o.Width <= 0 || o.Height <= 0 {
		return false
	}
	_, err := os.Stat(o.Pattern)
	return os.IsNotExist(err)
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	Pattern  *pattern.Pattern
	Authored bool

	// Segments is the segmentation of the pattern trajectory.
	Segments segment.Result

	// Search is the anchor-free trajectory search.
	Search *search.Result

	// Pins is the pin search, nil when SkipHold is set.
	Pins *pinsearch.Result

	NoHold *experiment.Record
	Hold   *experiment.Record

	// Snapshot is the sheet after replaying the final record's ordering.
	Snapshot cloth.Snapshot

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Members      int
	Segments     int
	Trials       int
	FailedTrials int
	SearchTime   time.Duration
	PinTime      time.Duration
}
