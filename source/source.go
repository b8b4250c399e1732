// Package source models NuGet package sources and the providers that
// supply them.
package source

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// PackageSource is read-only to everything outside the provider that
// produced it. Name is the identity key and compares case-insensitively.
type PackageSource struct {
	Name        string
	Location    string // feed URL or local folder path
	Enabled     bool
	Description string
}

// Provider supplies the ordered set of sources and remembers which one is
// active across sessions. The callback registered with OnSourcesChanged may
// be invoked from any goroutine.
type Provider interface {
	EnabledSources() []PackageSource
	ActivePackageSourceName() string
	SaveActivePackageSource(src PackageSource)
	OnSourcesChanged(fn func()) (cancel func())
}

// ActiveStore persists the globally active source name.
type ActiveStore interface {
	ActiveSourceName() string
	SetActiveSourceName(name string) error
}

// SameName reports whether two source names identify the same source.
func SameName(a, b string) bool {
	return cases.Fold().String(a) == cases.Fold().String(b)
}

// SameLocation compares feed locations ignoring case and a trailing slash.
func SameLocation(a, b string) bool {
	return strings.EqualFold(strings.TrimRight(a, `/\`), strings.TrimRight(b, `/\`))
}

// Find returns the index of the source named name, or -1.
func Find(sources []PackageSource, name string) int {
	for i, s := range sources {
		if SameName(s.Name, name) {
			return i
		}
	}
	return -1
}

// Enabled filters sources down to the enabled ones, keeping order.
func Enabled(sources []PackageSource) []PackageSource {
	out := make([]PackageSource, 0, len(sources))
	for _, s := range sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Tooltip is the hover text shown next to the source picker.
func (s PackageSource) Tooltip() string {
	if s.Description == "" {
		return fmt.Sprintf("%s - %s", s.Name, s.Location)
	}
	return fmt.Sprintf("%s - %s - %s", s.Name, s.Description, s.Location)
}

func (s PackageSource) String() string { return s.Name }
