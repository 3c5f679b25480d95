package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/paulmach/orb"
)

// Keyer generates cache keys.
type Keyer interface {
	// TrialKey returns the key for one trial outcome.
	TrialKey(shapeHash string, opts TrialKeyOpts) string
}

// TrialKeyOpts lists every trial input besides the shape itself.
type TrialKeyOpts struct {
	// Config is the simulation configuration. It must marshal to JSON
	// deterministically; plain structs do.
	Config  any
	Strokes [][]orb.Point
	Anchor  *orb.Point
	Offset  float64
}

// DefaultKeyer hashes trial inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TrialKey returns "trial:<sha256>" over the shape hash and opts.
func (DefaultKeyer) TrialKey(shapeHash string, opts TrialKeyOpts) string {
	return hashKey("trial", shapeHash, opts.Config, opts.Strokes, opts.Anchor, opts.Offset)
}

// ShapeHash returns a content hash of an outline ring.
func ShapeHash(ring orb.Ring) string {
	return hashKey("shape", ring)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey joins prefix and the digest of the JSON encoding of parts.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
