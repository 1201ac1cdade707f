package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := Validation("end_time must be after start_time")
	want := "validation: end_time must be after start_time"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	cause := errors.New("connection refused")
	wrapped := Internal(cause, "querying appointments")
	if wrapped.Error() != "internal: querying appointments: connection refused" {
		t.Errorf("unexpected wrapped message: %q", wrapped.Error())
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input"), KindValidation},
		{"not found", NotFound("patient not found"), KindNotFound},
		{"authorization", Authorization("access denied"), KindAuthorization},
		{"conflict", Conflict("overlapping appointment"), KindConflict},
		{"internal", Internal(errors.New("boom"), "db"), KindInternal},
		{"unclassified", errors.New("plain"), KindInternal},
		{"fmt-wrapped", fmt.Errorf("outer: %w", Conflict("inner")), KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}

	if KindOf(nil) != "" {
		t.Error("expected empty kind for nil error")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row missing")
	err := Wrap(KindNotFound, cause, "invoice %s", "abc")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the wrapped cause")
	}
}

func TestCollapsedDenialStaysDistinguishable(t *testing.T) {
	// A dentist probing a missing id gets an authorization error on the
	// wire, but the not-found cause must remain visible internally.
	missing := NotFound("appointment not found")
	collapsed := Wrap(KindAuthorization, missing, "access denied")

	if KindOf(collapsed) != KindAuthorization {
		t.Errorf("outer kind = %q, want authorization", KindOf(collapsed))
	}
	if !HasKind(collapsed, KindNotFound) {
		t.Error("expected the not-found cause to remain in the chain")
	}
	if HasKind(collapsed, KindConflict) {
		t.Error("did not expect a conflict kind in the chain")
	}

	// A genuine out-of-scope denial has no not-found in its chain.
	plain := Authorization("access denied")
	if HasKind(plain, KindNotFound) {
		t.Error("plain denial should not report a not-found cause")
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(Conflict("doctor busy"), KindConflict) {
		t.Error("expected IsKind to match conflict")
	}
	if IsKind(nil, KindConflict) {
		t.Error("nil error must not match any kind")
	}
	if IsKind(Validation("x"), KindConflict) {
		t.Error("validation must not match conflict")
	}
}
