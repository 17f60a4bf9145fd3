package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Required(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.Required("Name", "")

	if !cv.HasErrors() {
		t.Error("Expected error for empty required field")
	}

	cv2 := NewConfigValidator("TestConfig")
	cv2.Required("Name", "value")

	if cv2.HasErrors() {
		t.Error("Expected no error for non-empty required field")
	}
}

func TestConfigValidator_Durations(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.MinDuration("Timeout", 500*time.Millisecond, time.Second)
	if !cv.HasErrors() {
		t.Error("Expected error for duration below minimum")
	}

	cv = NewConfigValidator("TestConfig")
	cv.MaxDuration("Timeout", 2*time.Minute, time.Minute)
	if !cv.HasErrors() {
		t.Error("Expected error for duration above maximum")
	}

	cv = NewConfigValidator("TestConfig")
	cv.MinDuration("Timeout", time.Second, time.Second).MaxDuration("Timeout", time.Second, time.Minute)
	if cv.HasErrors() {
		t.Errorf("Expected no errors, got %v", cv.Errors())
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	allowed := []string{"single", "all_pairs"}

	cv := NewConfigValidator("TestConfig")
	cv.OneOf("SectorPolicy", "all_pairs", allowed)
	if cv.HasErrors() {
		t.Error("Expected no error for allowed value")
	}

	cv = NewConfigValidator("TestConfig")
	cv.OneOf("SectorPolicy", "first", allowed)
	if !cv.HasErrors() {
		t.Fatal("Expected error for value outside the allowed set")
	}
	if !strings.Contains(cv.Error().Error(), `"first"`) {
		t.Errorf("Error should quote the rejected value: %v", cv.Error())
	}
}

func TestConfigValidator_FileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "themes.jsonl")
	if err := os.WriteFile(file, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cv := NewConfigValidator("TestConfig")
	cv.FileExists("Themes", file)
	if cv.HasErrors() {
		t.Errorf("Expected no error for existing file, got %v", cv.Error())
	}

	cv = NewConfigValidator("TestConfig")
	cv.FileExists("Themes", filepath.Join(dir, "missing.jsonl"))
	if !cv.HasErrors() {
		t.Error("Expected error for missing file")
	}
	if !errors.Is(cv.Error(), os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", cv.Error())
	}

	cv = NewConfigValidator("TestConfig")
	cv.FileExists("Themes", dir)
	if !cv.HasErrors() {
		t.Error("Expected error for a directory")
	}

	cv = NewConfigValidator("TestConfig")
	cv.FileExists("Themes", "")
	if cv.HasErrors() {
		t.Error("Empty path is left to Required")
	}
}

func TestConfigValidator_Custom(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.Custom("Eval", func() error { return errors.New("both eval files or neither") })
	if !cv.HasErrors() {
		t.Fatal("Expected error from custom validation")
	}
	if got := cv.Error().Error(); got != "TestConfig.Eval: both eval files or neither" {
		t.Errorf("Unexpected message %q", got)
	}

	cv = NewConfigValidator("TestConfig")
	cv.Custom("Eval", func() error { return nil })
	if cv.HasErrors() {
		t.Error("Expected no error when custom validation passes")
	}
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.When(false, func(v *ConfigValidator) {
		v.Required("Region", "")
	})
	if cv.HasErrors() {
		t.Error("Validations should not run when condition is false")
	}

	cv.When(true, func(v *ConfigValidator) {
		v.Required("Region", "")
	})
	if !cv.HasErrors() {
		t.Error("Validations should run when condition is true")
	}
}

func TestConfigValidator_Validate(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	if err := cv.Validate(); err != nil {
		t.Errorf("Expected nil for no errors, got %v", err)
	}

	cv.Required("A", "")
	if err := cv.Validate(); err == nil || err.Error() != "TestConfig.A: required field is empty" {
		t.Errorf("Single error should be returned as is, got %v", err)
	}

	cv.Required("B", "")
	err := cv.Validate()
	if err == nil {
		t.Fatal("Expected combined error")
	}
	if !strings.Contains(err.Error(), "2 errors") {
		t.Errorf("Combined error should count errors: %v", err)
	}
	if len(cv.Errors()) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(cv.Errors()))
	}
}

type fakeConfig struct{ err error }

func (f *fakeConfig) Validate() error { return f.err }

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
	if err := ValidateConfig(&fakeConfig{}); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
	want := errors.New("bad")
	if err := ValidateConfig(&fakeConfig{err: want}); !errors.Is(err, want) {
		t.Errorf("Expected %v, got %v", want, err)
	}
}

func TestDefaults(t *testing.T) {
	if got := DefaultOr("", "info"); got != "info" {
		t.Errorf("DefaultOr empty = %q", got)
	}
	if got := DefaultOr("debug", "info"); got != "debug" {
		t.Errorf("DefaultOr set = %q", got)
	}
	if got := DefaultOrDuration(0, time.Second); got != time.Second {
		t.Errorf("DefaultOrDuration zero = %v", got)
	}
	if got := DefaultOrDuration(-time.Second, time.Second); got != time.Second {
		t.Errorf("DefaultOrDuration negative = %v", got)
	}
	if got := DefaultOrDuration(time.Minute, time.Second); got != time.Minute {
		t.Errorf("DefaultOrDuration set = %v", got)
	}
}
