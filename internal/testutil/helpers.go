// internal/testutil/helpers.go
package testutil

import (
	"errors"
	"strings"
	"testing"
)

// AssertEqual verifica que dos valores sean iguales.
func AssertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

// AssertNotEqual verifica que dos valores sean diferentes.
func AssertNotEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got == want {
		t.Errorf("%s: got %v, should not equal %v", msg, got, want)
	}
}

// AssertNil verifica que un valor sea nil.
func AssertNil(t *testing.T, got interface{}, msg string) {
	t.Helper()
	if got != nil {
		t.Errorf("%s: expected nil, got %v", msg, got)
	}
}

// AssertNotNil verifica que un valor no sea nil.
func AssertNotNil(t *testing.T, got interface{}, msg string) {
	t.Helper()
	if got == nil {
		t.Errorf("%s: expected non-nil value", msg)
	}
}

// AssertError verifica que un error no sea nil.
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
	}
}

// AssertNoError verifica que no haya error.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}

// AssertErrorIs verifica que el error encadene el sentinel esperado.
func AssertErrorIs(t *testing.T, err, target error, msg string) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("%s: error %v does not match %v", msg, err, target)
	}
}

// AssertTrue verifica que una condición sea verdadera.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("%s: expected true, got false", msg)
	}
}

// AssertFalse verifica que una condición sea falsa.
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Errorf("%s: expected false, got true", msg)
	}
}

// AssertContains verifica que un slice contenga un elemento O que un string
// contenga un substring.
func AssertContains(t *testing.T, container interface{}, element string, msg string) {
	t.Helper()

	switch v := container.(type) {
	case []string:
		for _, item := range v {
			if item == element {
				return
			}
		}
		t.Errorf("%s: slice %v does not contain %s", msg, v, element)
	case string:
		if !strings.Contains(v, element) {
			t.Errorf("%s: string %q does not contain %q", msg, v, element)
		}
	default:
		t.Errorf("%s: unsupported type for AssertContains", msg)
	}
}

// AssertStrSliceEqual verifica igualdad elemento a elemento de dos slices.
func AssertStrSliceEqual(t *testing.T, got, want []string, msg string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: got %v, want %v", msg, got, want)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s: index %d: got %q, want %q", msg, i, got[i], want[i])
			return
		}
	}
}
