package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/nulifyer/gugetctl/logger"
)

// Flag is a single process-wide string value kept outside the settings file.
// Get returns "" with a nil error when the value was never set.
type Flag interface {
	Get() (string, error)
	Set(value string) error
}

// DisclaimerSuppressed reports whether the legal disclaimer was dismissed.
// Any failure reading the flag means "show it".
func DisclaimerSuppressed(f Flag) bool {
	if f == nil {
		return false
	}
	v, err := f.Get()
	if err != nil {
		logger.Debug("disclaimer flag unreadable: %v", err)
		return false
	}
	return v != "" && v != "0"
}

// SuppressDisclaimer records the dismissal. Failures are swallowed.
func SuppressDisclaimer(f Flag) {
	if f == nil {
		return
	}
	if err := f.Set("1"); err != nil {
		logger.Debug("disclaimer flag not saved: %v", err)
	}
}

// FileFlag keeps the value in a one-line file.
type FileFlag struct {
	Path string
}

func (f FileFlag) Get() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (f FileFlag) Set(value string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	return atomicWrite(f.Path, []byte(value+"\n"), 0o644)
}
