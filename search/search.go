// Package search describes the request the control sends to the package
// loader and the entries the loader hands back.
package search

import (
	"fmt"
	"strings"

	"github.com/nulifyer/gugetctl/semver"
	"github.com/nulifyer/gugetctl/source"
	"github.com/nulifyer/gugetctl/status"
)

type Filter int

const (
	FilterAll Filter = iota
	FilterInstalled
	FilterUpdatesAvailable
)

var filterNames = []string{"all", "installed", "updates"}

func (f Filter) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterNames[f]
}

// Label is the text shown on the filter tab.
func (f Filter) Label() string {
	switch f {
	case FilterInstalled:
		return "Installed"
	case FilterUpdatesAvailable:
		return "Updates Available"
	}
	return "All"
}

// ImpliesStatus is true when membership in the result list already says
// what every entry's status is.
func (f Filter) ImpliesStatus() bool {
	return f == FilterInstalled || f == FilterUpdatesAvailable
}

func ParseFilter(s string) (Filter, error) {
	for i, name := range filterNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Filter(i), nil
		}
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want one of %s)", s, strings.Join(filterNames, ", "))
}

// Request is one search in one source. Source is nil when no source is
// enabled.
type Request struct {
	Source            *source.PackageSource
	Filter            Filter
	IncludePrerelease bool
	Text              string
}

// Searcher starts a search. It must not block the caller; results are
// delivered by whatever mechanism the implementation owns.
type Searcher interface {
	Search(req Request)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(req Request)

func (f SearcherFunc) Search(req Request) { f(req) }

// Package is one package-result entry in the visible list. Status is
// maintained in place by status.RefreshAll.
type Package struct {
	ID          string
	Versions    []semver.Version
	Description string
	Authors     string
	Status      status.Status
	StatusErr   error
}

func (p *Package) PackageID() string             { return p.ID }
func (p *Package) AllVersions() []semver.Version { return p.Versions }
func (p *Package) SetStatus(s status.Status)     { p.Status, p.StatusErr = s, nil }
func (p *Package) SetStatusError(err error)      { p.StatusErr = err }

// Latest is the highest version offered, prerelease or not.
func (p *Package) Latest() (semver.Version, bool) { return semver.Max(p.Versions) }
