package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidatorChecks(t *testing.T) {
	tests := []struct {
		name      string
		check     func(v *Validator)
		wantError bool
	}{
		{"non-empty", func(v *Validator) { v.RequireNonEmpty("f", "x") }, false},
		{"empty", func(v *Validator) { v.RequireNonEmpty("f", "") }, true},
		{"positive", func(v *Validator) { v.RequirePositive("f", 1) }, false},
		{"zero", func(v *Validator) { v.RequirePositive("f", 0) }, true},
		{"in range", func(v *Validator) { v.ValidateRange("f", 5, 0, 10) }, false},
		{"range upper bound", func(v *Validator) { v.ValidateRange("f", 10, 0, 10) }, false},
		{"out of range", func(v *Validator) { v.ValidateRange("f", 11, 0, 10) }, true},
		{"float in range", func(v *Validator) { v.ValidateFloatRange("f", 0.2, 0, 2) }, false},
		{"float out of range", func(v *Validator) { v.ValidateFloatRange("f", 2.5, 0, 2) }, true},
		{"redis db", func(v *Validator) { v.ValidateDBNumber("f", 15) }, false},
		{"redis db too large", func(v *Validator) { v.ValidateDBNumber("f", 16) }, true},
		{"one of", func(v *Validator) { v.ValidateOneOf("f", "b", "a", "b") }, false},
		{"not one of", func(v *Validator) { v.ValidateOneOf("f", "c", "a", "b") }, true},
		{"duration", func(v *Validator) { v.RequirePositiveDuration("f", time.Second) }, false},
		{"zero duration", func(v *Validator) { v.RequirePositiveDuration("f", 0) }, true},
		{"url", func(v *Validator) { v.RequireURL("f", "http://localhost:8001/process") }, false},
		{"url without scheme", func(v *Validator) { v.RequireURL("f", "localhost:8001") }, true},
		{"url with other scheme", func(v *Validator) { v.RequireURL("f", "ftp://host/x") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			tt.check(v)
			if v.HasErrors() != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v (%v)", v.HasErrors(), tt.wantError, v.Errors())
			}
		})
	}
}

func TestValidatorMultipleErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("name", "").
		RequirePositive("size", -1).
		ValidateOneOf("mode", "x", "a")

	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d", got)
	}
	err := v.Error()
	if err == nil {
		t.Fatalf("expected combined error")
	}
	for _, field := range []string{"name", "size", "mode"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %q in %q", field, err.Error())
		}
	}
}

func TestValidatorNoErrors(t *testing.T) {
	if err := NewValidator().RequireNonEmpty("f", "x").Error(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
