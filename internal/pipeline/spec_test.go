package pipeline

import (
	"errors"
	"testing"
)

func validSpec() *Spec {
	return &Spec{
		Name: "test-pipeline",
		Steps: []StepSpec{
			{Name: "fetch", Type: "http", Config: map[string]any{"url": "http://example.com"}},
			{Name: "shape", Type: "transform"},
		},
	}
}

// --- Spec Validation Tests ---

func TestSpec_Validate_Valid(t *testing.T) {
	reg := NewRegistry()

	if err := validSpec().Validate(reg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSpec_Validate_EmptyName(t *testing.T) {
	reg := NewRegistry()
	spec := validSpec()
	spec.Name = ""

	if err := spec.Validate(reg); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestSpec_Validate_EmptySteps(t *testing.T) {
	reg := NewRegistry()
	spec := &Spec{Name: "empty"}

	if err := spec.Validate(reg); !errors.Is(err, ErrEmptySteps) {
		t.Errorf("expected ErrEmptySteps, got %v", err)
	}
}

func TestSpec_Validate_EmptyStepName(t *testing.T) {
	reg := NewRegistry()
	spec := validSpec()
	spec.Steps[0].Name = ""

	if err := spec.Validate(reg); !errors.Is(err, ErrEmptyStepName) {
		t.Errorf("expected ErrEmptyStepName, got %v", err)
	}
}

func TestSpec_Validate_DuplicateStepName(t *testing.T) {
	reg := NewRegistry()
	spec := validSpec()
	spec.Steps[1].Name = spec.Steps[0].Name

	err := spec.Validate(reg)
	if !errors.Is(err, ErrDuplicateStepName) {
		t.Errorf("expected ErrDuplicateStepName, got %v", err)
	}

	// The error carries the step's context
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatal("expected ValidationError")
	}
	if verr.Step != "fetch" {
		t.Errorf("expected step fetch in error, got %s", verr.Step)
	}
}

func TestSpec_Validate_UnknownStepType(t *testing.T) {
	reg := NewRegistry()
	spec := validSpec()
	spec.Steps[0].Type = "teleport"

	if err := spec.Validate(reg); !errors.Is(err, ErrUnknownStepType) {
		t.Errorf("expected ErrUnknownStepType, got %v", err)
	}
}

func TestSpec_Validate_OnFailure(t *testing.T) {
	reg := NewRegistry()
	spec := validSpec()
	spec.OnFailure = &StepSpec{Name: "report", Type: "bogus"}

	if err := spec.Validate(reg); !errors.Is(err, ErrUnknownStepType) {
		t.Errorf("on_failure should be validated too, got %v", err)
	}

	spec.OnFailure = &StepSpec{Name: "report", Type: "transform"}
	if err := spec.Validate(reg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
