package report

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samply/laplace-go/internal/privacy"
	"github.com/samply/laplace-go/pkg/errors"
)

func newTestRewriter(t *testing.T, cache *privacy.Cache) (*Rewriter, *logtest.Hook) {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	rewriter, err := NewRewriter(privacy.DefaultParams(), cache, rand.NewPCG(1, 2), logger)
	require.NoError(t, err)
	return rewriter, hook
}

func patientsReport() map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "MeasureReport",
		"status":       "complete",
		"group": []interface{}{
			map[string]interface{}{
				"code": map[string]interface{}{"text": "patients"},
				"population": []interface{}{
					map[string]interface{}{"count": float64(74)},
				},
				"stratifier": []interface{}{
					map[string]interface{}{
						"stratum": []interface{}{
							map[string]interface{}{
								"population": []interface{}{
									map[string]interface{}{"count": float64(31)},
								},
							},
							map[string]interface{}{
								"population": []interface{}{
									map[string]interface{}{"count": float64(43)},
								},
							},
						},
					},
				},
			},
		},
	}
}

func extractCounts(node interface{}) []uint64 {
	var counts []uint64
	switch n := node.(type) {
	case map[string]interface{}:
		if c, ok := n["count"].(uint64); ok {
			counts = append(counts, c)
		}
		for _, child := range n {
			counts = append(counts, extractCounts(child)...)
		}
	case []interface{}:
		for _, child := range n {
			counts = append(counts, extractCounts(child)...)
		}
	}
	return counts
}

func TestObfuscateReportEndToEnd(t *testing.T) {
	cache := privacy.NewCache()
	rewriter, _ := newTestRewriter(t, cache)

	doc := patientsReport()
	require.NoError(t, rewriter.ObfuscateReport(doc))

	counts := extractCounts(doc)
	require.Len(t, counts, 3)
	for _, c := range counts {
		assert.Zero(t, c%10, "count %d is not a multiple of 10", c)
	}

	// A second document with the same counts through the same cache must
	// come out identical.
	doc2 := patientsReport()
	require.NoError(t, rewriter.ObfuscateReport(doc2))
	assert.Equal(t, extractCounts(doc), extractCounts(doc2))
}

func smallCountsReport() map[string]interface{} {
	return map[string]interface{}{
		"group": []interface{}{
			map[string]interface{}{
				"code": map[string]interface{}{"text": "diagnosis"},
				"population": []interface{}{
					map[string]interface{}{"count": float64(0)},
					map[string]interface{}{"count": float64(1)},
					map[string]interface{}{"count": float64(5)},
					map[string]interface{}{"count": float64(10)},
				},
			},
		},
	}
}

func populationCounts(doc map[string]interface{}) []interface{} {
	population := doc["group"].([]interface{})[0].(map[string]interface{})["population"].([]interface{})
	counts := make([]interface{}, len(population))
	for i, node := range population {
		counts[i] = node.(map[string]interface{})["count"]
	}
	return counts
}

func TestObfuscateReportSuppressionTiers(t *testing.T) {
	rewriter, _ := newTestRewriter(t, privacy.NewCache())

	doc := smallCountsReport()
	require.NoError(t, rewriter.ObfuscateReport(doc))

	assert.Equal(t, []interface{}{
		uint64(0), uint64(10), uint64(10), uint64(10),
	}, populationCounts(doc))
}

func TestObfuscateReportBelow10ModeZero(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	params := privacy.DefaultParams()
	params.Below10 = privacy.Below10Zero

	rewriter, err := NewRewriter(params, privacy.NewCache(), rand.NewPCG(1, 2), logger)
	require.NoError(t, err)

	doc := smallCountsReport()
	require.NoError(t, rewriter.ObfuscateReport(doc))

	assert.Equal(t, []interface{}{
		uint64(0), uint64(0), uint64(0), uint64(0),
	}, populationCounts(doc))
}

func TestObfuscateReportBelow10ModeObfuscate(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	params := privacy.DefaultParams()
	params.Below10 = privacy.Below10Obfuscate

	rewriter, err := NewRewriter(params, privacy.NewCache(), rand.NewPCG(1, 2), logger)
	require.NoError(t, err)

	doc := smallCountsReport()
	require.NoError(t, rewriter.ObfuscateReport(doc))

	counts := populationCounts(doc)
	assert.Equal(t, uint64(0), counts[0], "zero stays suppressed without ObfuscateZero")
	for _, c := range counts[1:] {
		assert.Zero(t, c.(uint64)%10, "count %d is not a multiple of 10", c)
	}
}

func TestObfuscateReportObfuscateZero(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	params := privacy.DefaultParams()
	params.ObfuscateZero = true

	rewriter, err := NewRewriter(params, privacy.NewCache(), rand.NewPCG(1, 2), logger)
	require.NoError(t, err)

	doc := smallCountsReport()
	require.NoError(t, rewriter.ObfuscateReport(doc))

	// With the default below-10 floor, a perturbed zero lands on ten.
	assert.Equal(t, uint64(10), populationCounts(doc)[0])
}

func TestObfuscateReportUnknownCategoryUntouched(t *testing.T) {
	rewriter, hook := newTestRewriter(t, privacy.NewCache())

	doc := map[string]interface{}{
		"group": []interface{}{
			map[string]interface{}{
				"code": map[string]interface{}{"text": "medication"},
				"population": []interface{}{
					map[string]interface{}{"count": float64(42)},
				},
			},
		},
	}
	require.NoError(t, rewriter.ObfuscateReport(doc))

	population := doc["group"].([]interface{})[0].(map[string]interface{})["population"].([]interface{})
	assert.Equal(t, float64(42), population[0].(map[string]interface{})["count"])

	assert.Equal(t, uint64(1), rewriter.Stats().SkippedGroups)
	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "medication", hook.LastEntry().Data["label"])
}

func TestObfuscateReportNoGroups(t *testing.T) {
	rewriter, _ := newTestRewriter(t, privacy.NewCache())

	doc := map[string]interface{}{"resourceType": "MeasureReport"}
	require.NoError(t, rewriter.ObfuscateReport(doc))
	assert.Equal(t, map[string]interface{}{"resourceType": "MeasureReport"}, doc)
}

func TestObfuscateReportIgnoresNonCountValues(t *testing.T) {
	rewriter, _ := newTestRewriter(t, privacy.NewCache())

	doc := map[string]interface{}{
		"group": []interface{}{
			map[string]interface{}{
				"code": map[string]interface{}{"text": "patients"},
				"population": []interface{}{
					map[string]interface{}{"count": float64(3.5)},
					map[string]interface{}{"count": float64(-4)},
					map[string]interface{}{"count": "many"},
					map[string]interface{}{"count": math.Ldexp(1, 64)},
					map[string]interface{}{"total": float64(99)},
				},
			},
		},
	}
	require.NoError(t, rewriter.ObfuscateReport(doc))

	population := doc["group"].([]interface{})[0].(map[string]interface{})["population"].([]interface{})
	assert.Equal(t, float64(3.5), population[0].(map[string]interface{})["count"])
	assert.Equal(t, float64(-4), population[1].(map[string]interface{})["count"])
	assert.Equal(t, "many", population[2].(map[string]interface{})["count"])
	// 1<<64 does not fit a uint64 and is not a count.
	assert.Equal(t, math.Ldexp(1, 64), population[3].(map[string]interface{})["count"])
	assert.Equal(t, float64(99), population[4].(map[string]interface{})["total"])
}

// assertSameShape checks that two trees have identical structure and that all
// scalars outside "count" keys are identical.
func assertSameShape(t *testing.T, original, obfuscated interface{}, underCount bool) {
	t.Helper()

	switch orig := original.(type) {
	case map[string]interface{}:
		got, ok := obfuscated.(map[string]interface{})
		require.True(t, ok)
		require.Len(t, got, len(orig))
		for key, child := range orig {
			gotChild, ok := got[key]
			require.True(t, ok, "missing key %q", key)
			assertSameShape(t, child, gotChild, key == "count")
		}
	case []interface{}:
		got, ok := obfuscated.([]interface{})
		require.True(t, ok)
		require.Len(t, got, len(orig))
		for i, child := range orig {
			assertSameShape(t, child, got[i], false)
		}
	default:
		if !underCount {
			assert.Equal(t, original, obfuscated)
		}
	}
}

func TestObfuscateReportPreservesShape(t *testing.T) {
	rewriter, _ := newTestRewriter(t, privacy.NewCache())

	original := patientsReport()
	doc := patientsReport()
	require.NoError(t, rewriter.ObfuscateReport(doc))

	assertSameShape(t, original, doc, false)
}

func TestObfuscateJSONDeterministic(t *testing.T) {
	rewriter, _ := newTestRewriter(t, privacy.NewCache())

	input, err := json.Marshal(patientsReport())
	require.NoError(t, err)

	first, err := rewriter.ObfuscateJSON(input)
	require.NoError(t, err)
	second, err := rewriter.ObfuscateJSON(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestObfuscateJSONInvalidInput(t *testing.T) {
	rewriter, _ := newTestRewriter(t, privacy.NewCache())

	_, err := rewriter.ObfuscateJSON([]byte("not json"))
	require.Error(t, err)
	assert.Equal(t, "SERIALIZATION_FAILED", errors.GetErrorCode(err))
}

func TestNewRewriterInvalidParams(t *testing.T) {
	params := privacy.DefaultParams()
	params.Epsilon = 0

	_, err := NewRewriter(params, privacy.NewCache(), rand.NewPCG(1, 2), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidEpsilon)
}

func TestRewriterStats(t *testing.T) {
	rewriter, _ := newTestRewriter(t, privacy.NewCache())

	require.NoError(t, rewriter.ObfuscateReport(patientsReport()))

	stats := rewriter.Stats()
	assert.Equal(t, uint64(3), stats.ObfuscatedCounts[CategoryPatients])
	assert.Equal(t, uint64(0), stats.SkippedGroups)
}

func TestRewriterStatsExcludeUntouchedZeros(t *testing.T) {
	rewriter, _ := newTestRewriter(t, privacy.NewCache())

	// One zero count stays zero, three others are rewritten.
	require.NoError(t, rewriter.ObfuscateReport(smallCountsReport()))

	assert.Equal(t, uint64(3), rewriter.Stats().ObfuscatedCounts[CategoryDiagnosis])
}

// The rewriter rounds with integer arithmetic over a pre-rounded
// perturbation, while the single-value path rounds the continuous noisy value
// once. The two paths disagree at certain boundary values and are kept
// separate on purpose.
func TestRoundingPathsDiverge(t *testing.T) {
	const (
		count = uint64(12)
		noise = 2.6
	)

	perturbation := int64(3) // round(2.6)
	manual := uint64(int64(count)+perturbation+5) / 10 * 10

	general, err := privacy.RoundToStep(float64(count)+noise, 10)
	require.NoError(t, err)

	assert.Equal(t, uint64(20), manual)
	assert.Equal(t, uint64(10), general)
	assert.NotEqual(t, manual, general)
}
