package testutil

import (
	"errors"
	"math"
	"testing"

	apperrors "cryptostock/internal/errors"
)

// AssertAppError checks that err is, or wraps, an *AppError with the expected
// error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an *AppError with code %q, got %T: %v", expectedCode, err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (status %d, message: %s)", expectedCode, appErr.Code, appErr.StatusCode, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// MoneyDelta is the tolerance for comparing prices, quantities and balances
// that went through float arithmetic.
const MoneyDelta = 1e-6

// AssertInDelta checks that got is within delta of want. name labels the
// value in the failure message.
func AssertInDelta(t *testing.T, name string, got, want, delta float64) {
	t.Helper()

	if math.IsNaN(got) || math.Abs(got-want) > delta {
		t.Errorf("%s: expected %v (±%g), got %v", name, want, delta, got)
	}
}
