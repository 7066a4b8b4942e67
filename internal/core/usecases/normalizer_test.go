package usecases

import (
	"testing"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/platform/errors"
	"recondragon/internal/testutil"
)

func validResult() *domain.Result {
	res := domain.NewResult("nmap", "1.0.0", "example.com")
	res.Summary["hosts"] = 1
	return res.Finish(true)
}

func TestNormalizer_AcceptsCanonicalResult(t *testing.T) {
	n := NewNormalizer()
	res := validResult()

	testutil.AssertNoError(t, n.Normalize(res), "canonical result passes")
}

func TestNormalizer_RejectsMissingFields(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name   string
		mutate func(res *domain.Result)
	}{
		{"missing module", func(res *domain.Result) { res.Module = "" }},
		{"missing version", func(res *domain.Result) { res.Version = "" }},
		{"missing target", func(res *domain.Result) { res.Target = "" }},
		{"missing start_time", func(res *domain.Result) { res.StartTime = 0 }},
		{"success without summary", func(res *domain.Result) { res.Summary = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validResult()
			tt.mutate(res)

			err := n.Normalize(res)
			testutil.AssertErrorIs(t, err, errors.ErrMalformedResult, "malformed result rejected")
		})
	}

	t.Run("nil result", func(t *testing.T) {
		err := n.Normalize(nil)
		testutil.AssertErrorIs(t, err, errors.ErrMalformedResult, "nil result rejected")
	})
}

func TestNormalizer_RejectsInvertedTimestamps(t *testing.T) {
	n := NewNormalizer()
	res := validResult()
	res.EndTime = res.StartTime - 10

	err := n.Normalize(res)
	testutil.AssertErrorIs(t, err, errors.ErrMalformedResult, "end before start rejected")
}

func TestNormalizer_AcceptsZeroDuration(t *testing.T) {
	n := NewNormalizer()
	res := validResult()
	res.EndTime = res.StartTime

	testutil.AssertNoError(t, n.Normalize(res), "instantaneous result passes")
}

func TestNormalizer_CoercesWholeFloatsToInt(t *testing.T) {
	// Los decoders JSON entregan todo número como float64; los enteros deben
	// quedar como int en el summary canónico.
	n := NewNormalizer()
	res := validResult()
	res.Summary["hosts"] = float64(12)
	res.Summary["latency_avg"] = 3.5
	res.Summary["scanned_count"] = float64(200)

	testutil.AssertNoError(t, n.Normalize(res), "normalize")
	testutil.AssertEqual(t, res.Summary["hosts"], 12, "whole float becomes int")
	testutil.AssertEqual(t, res.Summary["latency_avg"], 3.5, "fractional float untouched")
	testutil.AssertEqual(t, res.Summary["scanned_count"], 200, "count key coerced")
}

func TestNormalizer_RejectsNegativeCounts(t *testing.T) {
	n := NewNormalizer()

	t.Run("known count key", func(t *testing.T) {
		res := validResult()
		res.Summary["hosts"] = -1

		err := n.Normalize(res)
		testutil.AssertErrorIs(t, err, errors.ErrMalformedResult, "negative count rejected")
	})

	t.Run("count suffix key", func(t *testing.T) {
		res := validResult()
		res.Summary["open_port_count"] = float64(-3)

		err := n.Normalize(res)
		testutil.AssertErrorIs(t, err, errors.ErrMalformedResult, "negative _count rejected")
	})

	t.Run("negative non-count value passes", func(t *testing.T) {
		res := validResult()
		res.Summary["temperature_delta"] = -3

		testutil.AssertNoError(t, n.Normalize(res), "non-count negatives allowed")
	})
}

func TestNormalizer_PreservesUnknownFields(t *testing.T) {
	n := NewNormalizer()
	res := validResult()
	res.Summary["custom_field"] = "anything"
	res.Summary["nested"] = map[string]any{"a": 1}

	testutil.AssertNoError(t, n.Normalize(res), "normalize")
	testutil.AssertEqual(t, res.Summary["custom_field"], "anything", "unknown scalar preserved")
	testutil.AssertNotNil(t, res.Summary["nested"], "unknown structure preserved")
}

func TestNormalizer_FillsNilCollections(t *testing.T) {
	n := NewNormalizer()
	res := domain.NewResult("nmap", "1.0.0", "example.com")
	res.Summary = nil
	res.Artifacts = nil
	res.EndTime = domain.Epoch(time.Now())
	res.Success = false

	testutil.AssertNoError(t, n.Normalize(res), "failed result without summary passes")
	testutil.AssertNotNil(t, res.Summary, "summary initialized")
	testutil.AssertNotNil(t, res.Artifacts, "artifacts initialized")
}
