package registry

import (
	"testing"
	"time"

	"recondragon/internal/testutil"
)

func TestGetStringOption(t *testing.T) {
	opts := map[string]any{"ports": "80,443", "empty": ""}

	testutil.AssertEqual(t, GetStringOption(opts, "ports", "x"), "80,443", "present")
	testutil.AssertEqual(t, GetStringOption(opts, "missing", "x"), "x", "missing falls back")
	testutil.AssertEqual(t, GetStringOption(opts, "empty", "x"), "x", "empty string falls back")
	testutil.AssertEqual(t, GetStringOption(nil, "ports", "x"), "x", "nil options")
}

func TestGetIntOption(t *testing.T) {
	opts := map[string]any{
		"rate":    1000,
		"decoded": float64(25), // números JSON/YAML llegan como float64
		"wide":    int64(7),
		"text":    "nope",
	}

	testutil.AssertEqual(t, GetIntOption(opts, "rate", 1), 1000, "int")
	testutil.AssertEqual(t, GetIntOption(opts, "decoded", 1), 25, "float64 coerced")
	testutil.AssertEqual(t, GetIntOption(opts, "wide", 1), 7, "int64 coerced")
	testutil.AssertEqual(t, GetIntOption(opts, "text", 1), 1, "wrong type falls back")
	testutil.AssertEqual(t, GetIntOption(opts, "missing", 1), 1, "missing falls back")
}

func TestGetBoolOption(t *testing.T) {
	opts := map[string]any{"insecure": true, "text": "true"}

	testutil.AssertTrue(t, GetBoolOption(opts, "insecure", false), "present")
	testutil.AssertFalse(t, GetBoolOption(opts, "text", false), "string is not a bool")
	testutil.AssertTrue(t, GetBoolOption(opts, "missing", true), "missing falls back")
}

func TestGetDurationOption(t *testing.T) {
	opts := map[string]any{
		"native": 5 * time.Second,
		"nanos":  int64(2 * time.Second),
		"text":   "90s",
		"broken": "ninety seconds",
	}

	testutil.AssertEqual(t, GetDurationOption(opts, "native", time.Minute), 5*time.Second, "duration")
	testutil.AssertEqual(t, GetDurationOption(opts, "nanos", time.Minute), 2*time.Second, "int64 nanoseconds")
	testutil.AssertEqual(t, GetDurationOption(opts, "text", time.Minute), 90*time.Second, "string parsed")
	testutil.AssertEqual(t, GetDurationOption(opts, "broken", time.Minute), time.Minute, "unparseable falls back")
	testutil.AssertEqual(t, GetDurationOption(opts, "missing", time.Minute), time.Minute, "missing falls back")
}

func TestGetSliceOption(t *testing.T) {
	opts := map[string]any{
		"typed":   []string{"crtsh", "hackertarget"},
		"decoded": []any{"a", 42, "b"}, // listas YAML llegan como []any
		"empty":   []string{},
	}

	testutil.AssertStrSliceEqual(t, GetSliceOption(opts, "typed", nil), []string{"crtsh", "hackertarget"}, "typed slice")
	testutil.AssertStrSliceEqual(t, GetSliceOption(opts, "decoded", nil), []string{"a", "b"}, "non-strings dropped")
	testutil.AssertStrSliceEqual(t, GetSliceOption(opts, "empty", []string{"d"}), []string{"d"}, "empty falls back")
	testutil.AssertStrSliceEqual(t, GetSliceOption(nil, "typed", []string{"d"}), []string{"d"}, "nil options")
}
