package onlinetime

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	now := date(2024, 6, 1)

	tests := []struct {
		name      string
		threshold int64
		start     time.Time
		end       time.Time
		want      error
	}{
		{"valid", 60, date(2024, 5, 1), date(2024, 5, 3), nil},
		{"same day", 60, date(2024, 5, 1), date(2024, 5, 1), nil},
		{"zero threshold", 0, date(2024, 5, 1), date(2024, 5, 3), ErrInvalidThreshold},
		{"negative threshold", -5, date(2024, 5, 1), date(2024, 5, 3), ErrInvalidThreshold},
		{"inverted", 60, date(2024, 5, 3), date(2024, 5, 1), ErrInvertedRange},
		{"end equals now", 60, date(2024, 5, 1), now, ErrFutureEndDate},
		{"end in future", 60, date(2024, 5, 1), date(2024, 7, 1), ErrFutureEndDate},
		{"threshold checked first", 0, date(2024, 8, 3), date(2024, 7, 1), ErrInvalidThreshold},
		{"orientation checked before future", 60, date(2024, 8, 3), date(2024, 7, 1), ErrInvertedRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.threshold, tt.start, tt.end, now)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
			if !IsValidationError(err) {
				t.Errorf("IsValidationError(%v) = false", err)
			}
		})
	}
}

func TestCollaboratorError(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("compute: %w", &CollaboratorError{
		Collaborator: CollaboratorLogSource,
		Day:          date(2024, 5, 2),
		Err:          cause,
	})

	if !errors.Is(err, ErrCollaboratorFailure) {
		t.Error("expected error to match ErrCollaboratorFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("expected error to unwrap to its cause")
	}
	if IsValidationError(err) {
		t.Error("collaborator failure reported as a validation error")
	}
	if !strings.Contains(err.Error(), "2024-05-02") {
		t.Errorf("error %q does not name the failing day", err)
	}

	var cerr *CollaboratorError
	if !errors.As(err, &cerr) {
		t.Fatal("errors.As did not find a CollaboratorError")
	}
	if cerr.Collaborator != CollaboratorLogSource {
		t.Errorf("Collaborator = %q, want %q", cerr.Collaborator, CollaboratorLogSource)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	for in, want := range map[string]FailurePolicy{
		"":           PolicyPropagate,
		"propagate":  PolicyPropagate,
		"debug":      PolicyPropagate,
		"partial":    PolicyPartial,
		"Production": PolicyPartial,
	} {
		got, err := ParseFailurePolicy(in)
		if err != nil {
			t.Errorf("ParseFailurePolicy(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFailurePolicy(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseFailurePolicy("swallow"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
