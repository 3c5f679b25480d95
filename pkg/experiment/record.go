// Package experiment persists the outcome of a cutting experiment.
//
// Every named experiment produces two [Record] variants: "nohold", searched
// without an anchor, and "hold", searched with the best pin position found
// by the pin search. Records are plain data with JSON and BSON tags so they
// round-trip exactly through either a [FileStore] or a [MongoStore].
//
// # Usage
//
//	store, err := experiment.NewFileStore("")
//	if err != nil {
//	    return err
//	}
//	rec := experiment.NewRecord("square", experiment.NoHold)
//	rec.BestScore = res.Best.Score
//	if err := store.Save(ctx, rec); err != nil {
//	    return err
//	}
package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

// Variant distinguishes searches with and without an anchor.
type Variant string

// Record variants.
const (
	NoHold Variant = "nohold"
	Hold   Variant = "hold"
)

// Variants lists every variant in the order a pipeline writes them.
var Variants = []Variant{NoHold, Hold}

// Record is one persisted experiment variant.
type Record struct {
	RunID     string    `json:"run_id" bson:"run_id"`
	Name      string    `json:"name" bson:"name"`
	Variant   Variant   `json:"variant" bson:"variant"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	TotalPts   int     `json:"total_pts" bson:"total_pts"`
	InitScore  float64 `json:"init_score" bson:"init_score"`
	BestScore  float64 `json:"best_score" bson:"best_score"`
	WorstScore float64 `json:"worst_score" bson:"worst_score"`

	OldTrajectory []orb.Point `json:"old_trajectory" bson:"old_trajectory"`
	Trajectory    []orb.Point `json:"trajectory" bson:"trajectory"`
	Order         []int       `json:"order" bson:"order"`
	IndicesOfPts  []int       `json:"indices_of_pts" bson:"indices_of_pts"`

	// Anchor fields are only set on the hold variant.
	BestPinPt  *orb.Point  `json:"best_pin_pt,omitempty" bson:"best_pin_pt,omitempty"`
	WorstPinPt *orb.Point  `json:"worst_pin_pt,omitempty" bson:"worst_pin_pt,omitempty"`
	PinPts     []orb.Point `json:"pin_pts,omitempty" bson:"pin_pts,omitempty"`
	PinScores  []float64   `json:"pin_scores,omitempty" bson:"pin_scores,omitempty"`
}

// NewRecord returns an empty record with a fresh run ID.
func NewRecord(name string, variant Variant) *Record {
	return &Record{
		RunID:     uuid.NewString(),
		Name:      name,
		Variant:   variant,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// ID returns the key a record is stored under.
func (r *Record) ID() string {
	return r.Name + "/" + string(r.Variant)
}

// Validate checks the record's name and variant.
func (r *Record) Validate() error {
	if err := gerrors.ValidateExperimentName(r.Name); err != nil {
		return err
	}
	return gerrors.ValidateVariant(string(r.Variant))
}

// WriteJSON encodes r as indented JSON.
func WriteJSON(r *Record, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a record written by [WriteJSON].
func ReadJSON(r io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeLoad, err, "decode record")
	}
	return &rec, nil
}

// Store persists experiment records.
type Store interface {
	// Save creates or replaces the record for (Name, Variant).
	Save(ctx context.Context, r *Record) error

	// Load returns the record, or a NOT_FOUND error.
	Load(ctx context.Context, name string, variant Variant) (*Record, error)

	// List returns the stored variants of an experiment.
	List(ctx context.Context, name string) ([]Variant, error)

	Close() error
}

func validateKey(name string, variant Variant) error {
	if err := gerrors.ValidateExperimentName(name); err != nil {
		return err
	}
	return gerrors.ValidateVariant(string(variant))
}

func notFound(name string, variant Variant) error {
	return gerrors.New(gerrors.ErrCodeNotFound, "experiment %s has no %s record", name, variant)
}

// Open returns a MongoStore for mongodb:// targets and a FileStore rooted
// at target otherwise. An empty target uses the default file location.
func Open(ctx context.Context, target string) (Store, error) {
	if strings.HasPrefix(target, "mongodb://") || strings.HasPrefix(target, "mongodb+srv://") {
		return NewMongoStore(ctx, target, "")
	}
	return NewFileStore(target)
}
