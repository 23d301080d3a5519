package report

import (
	"encoding/json"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/samply/laplace-go/internal/privacy"
	"github.com/samply/laplace-go/pkg/errors"
)

// Bins separating the structural roles a count can have inside a group, so
// that a population count and a stratified sub-count never share a noise draw
// even when numerically equal.
const (
	BinPopulation = 1
	BinStratifier = 2
)

// Rewriter obfuscates the counts of a report document in place. It walks each
// recognized group's population and stratifier subtrees and replaces every
// count through the shared obfuscation cache, so repeated counts and repeated
// runs over the same cache produce consistent output.
//
// A Rewriter is single-threaded: it owns its random source and cache for the
// duration of each call and must not be shared across goroutines.
type Rewriter struct {
	params privacy.Params
	cache  *privacy.Cache
	src    rand.Source
	logger *logrus.Logger
	stats  Stats
}

// Stats counts what a Rewriter has done across its lifetime.
type Stats struct {
	// ObfuscatedCounts holds, per category, how many count fields were
	// rewritten. Zero counts left untouched are not included.
	ObfuscatedCounts map[Category]uint64
	// SkippedGroups is the number of groups left untouched because their
	// label was not recognized.
	SkippedGroups uint64
}

// NewRewriter creates a Rewriter over the given cache and random source. The
// cache is owned by the caller and typically lives for one document or one
// processing run; a nil cache gets a fresh one scoped to this Rewriter. The
// parameters are validated once here so the traversal cannot fail on them.
func NewRewriter(params privacy.Params, cache *privacy.Cache, src rand.Source, logger *logrus.Logger) (*Rewriter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = privacy.NewCache()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Rewriter{
		params: params,
		cache:  cache,
		src:    src,
		logger: logger,
		stats:  Stats{ObfuscatedCounts: make(map[Category]uint64)},
	}, nil
}

// Stats returns what the Rewriter has rewritten so far.
func (r *Rewriter) Stats() Stats {
	return r.stats
}

// ObfuscateReport rewrites all counts of the document in place. Groups whose
// label is not a recognized category are left completely untouched and logged
// at warning level. The document's shape never changes: no keys or elements
// are added or removed, only values under keys named "count" are replaced.
func (r *Rewriter) ObfuscateReport(doc map[string]interface{}) error {
	groups, ok := doc["group"].([]interface{})
	if !ok {
		return nil
	}

	for _, raw := range groups {
		group, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		label := groupLabel(group)
		category := ParseCategory(label)
		if category == CategoryUnknown {
			r.stats.SkippedGroups++
			r.logger.WithFields(logrus.Fields{
				"label": label,
			}).Warn("Unrecognized group category, leaving counts unobfuscated")
			continue
		}

		if node, ok := group["population"]; ok {
			if err := r.obfuscateSubtree(node, category, BinPopulation); err != nil {
				return err
			}
		}
		if node, ok := group["stratifier"]; ok {
			if err := r.obfuscateSubtree(node, category, BinStratifier); err != nil {
				return err
			}
		}
	}
	return nil
}

// ObfuscateJSON is the pure-transform variant: it deserializes a JSON report,
// rewrites its counts and serializes it back.
func (r *Rewriter) ObfuscateJSON(data []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewSerializationError("failed to deserialize report", err)
	}
	if err := r.ObfuscateReport(doc); err != nil {
		return nil, err
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewSerializationError("failed to serialize report", err)
	}
	return out, nil
}

// obfuscateSubtree walks node depth-first and unconditionally: every object
// key and every array element is visited regardless of whether the current
// node held a count, because counts can be nested arbitrarily deep.
func (r *Rewriter) obfuscateSubtree(node interface{}, category Category, bin int) error {
	switch n := node.(type) {
	case map[string]interface{}:
		if raw, ok := n["count"]; ok {
			if count, ok := asCount(raw); ok {
				obfuscated, err := r.obfuscateCount(count, category, bin)
				if err != nil {
					return err
				}
				n["count"] = obfuscated
				// Zero counts left at zero were not perturbed and do
				// not count as obfuscated.
				if count != 0 || obfuscated != 0 {
					r.stats.ObfuscatedCounts[category]++
				}
			}
		}
		for _, child := range n {
			if err := r.obfuscateSubtree(child, category, bin); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, child := range n {
			if err := r.obfuscateSubtree(child, category, bin); err != nil {
				return err
			}
		}
	}
	return nil
}

// obfuscateCount applies the suppression policy: zero counts pass through
// untouched unless ObfuscateZero is set, counts up to ten follow the
// configured below-10 mode (the default floors them to ten), and larger
// counts get a cached-or-fresh noise draw rounded to the nearest multiple of
// ten.
//
// The rounding here is manual half-up integer arithmetic. It is close to, but
// not bit-identical with, privacy.RoundToStep at certain boundary values; the
// two paths are kept separate on purpose.
func (r *Rewriter) obfuscateCount(count uint64, category Category, bin int) (uint64, error) {
	if count == 0 && !r.params.ObfuscateZero {
		return 0, nil
	}
	if count <= 10 {
		switch r.params.Below10 {
		case privacy.Below10Zero:
			return 0, nil
		case privacy.Below10Ten:
			return 10, nil
		}
	}

	sensitivity := category.Sensitivity(r.params)
	perturbation, err := privacy.Perturbation(count, sensitivity, r.params.Epsilon, bin, r.cache, r.src)
	if err != nil {
		return 0, err
	}
	noisy := int64(count) + perturbation + 5
	if noisy < 0 {
		return 0, nil
	}
	return uint64(noisy) / 10 * 10, nil
}

// groupLabel extracts the human-readable label of a group node from its
// code.text field.
func groupLabel(group map[string]interface{}) string {
	code, ok := group["code"].(map[string]interface{})
	if !ok {
		return ""
	}
	text, _ := code["text"].(string)
	return text
}

// asCount interprets a decoded JSON value as a non-negative integer count.
// Fractional or negative numbers are not counts and stay untouched.
func asCount(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		// math.MaxUint64 converts to exactly 1<<64, which uint64 cannot
		// hold; the comparison must exclude it.
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return asCount(f)
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}
