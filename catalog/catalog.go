// Package catalog answers package searches from a local TOML file that lists
// what each source offers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sahilm/fuzzy"

	"github.com/nulifyer/gugetctl/logger"
	"github.com/nulifyer/gugetctl/project"
	"github.com/nulifyer/gugetctl/search"
	"github.com/nulifyer/gugetctl/semver"
	"github.com/nulifyer/gugetctl/source"
	"github.com/nulifyer/gugetctl/status"
)

type file struct {
	Packages []entry `toml:"package"`
}

type entry struct {
	ID          string   `toml:"id"`
	Versions    []string `toml:"versions"`
	Description string   `toml:"description,omitempty"`
	Authors     string   `toml:"authors,omitempty"`
	// Sources lists source names or locations; empty means every source.
	Sources []string `toml:"sources,omitempty"`
}

type Package struct {
	ID          string
	Versions    []semver.Version
	Description string
	Authors     string
	Sources     []string
}

func (p Package) servedBy(src source.PackageSource) bool {
	if len(p.Sources) == 0 {
		return true
	}
	for _, s := range p.Sources {
		if source.SameName(s, src.Name) || source.SameLocation(s, src.Location) {
			return true
		}
	}
	return false
}

type Catalog struct {
	Packages []Package
	// Mapping restricts which source may serve a package. Nil allows all.
	Mapping *source.Mapping
}

// Load reads a catalog file. A missing file is an empty catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("catalog %s not found, starting empty", path)
		return &Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	logger.Info("catalog: %d package(s) from %s", len(c.Packages), path)
	return c, nil
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := &Catalog{Packages: make([]Package, 0, len(f.Packages))}
	for i, e := range f.Packages {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("package #%d has no id", i+1)
		}
		c.Packages = append(c.Packages, Package{
			ID:          e.ID,
			Versions:    semver.ParseAll(e.Versions...),
			Description: e.Description,
			Authors:     e.Authors,
			Sources:     e.Sources,
		})
	}
	return c, nil
}

// Query runs req against the catalog and resolves every result's status
// against projects. Packages whose status cannot be resolved are still
// listed under the All filter with the error recorded.
func (c *Catalog) Query(ctx context.Context, req search.Request, projects []project.Project) ([]*search.Package, error) {
	if req.Source == nil {
		return nil, nil
	}

	var candidates []Package
	for _, p := range c.Packages {
		if !p.servedBy(*req.Source) || !c.Mapping.Allows(req.Source.Name, p.ID) {
			continue
		}
		versions := p.Versions
		if !req.IncludePrerelease {
			versions = stableOnly(versions)
		}
		if len(versions) == 0 {
			continue
		}
		p.Versions = versions
		candidates = append(candidates, p)
	}
	candidates = matchText(candidates, req.Text)

	out := make([]*search.Package, 0, len(candidates))
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pkg := &search.Package{
			ID:          p.ID,
			Versions:    p.Versions,
			Description: p.Description,
			Authors:     p.Authors,
		}
		st, err := status.Resolve(ctx, p.ID, p.Versions, projects)
		if err != nil {
			var nsv *status.NoStableVersionError
			if !errors.As(err, &nsv) {
				return nil, err
			}
			pkg.SetStatusError(err)
		} else {
			pkg.SetStatus(st)
		}
		if keep(req.Filter, pkg) {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func keep(f search.Filter, pkg *search.Package) bool {
	switch f {
	case search.FilterInstalled:
		return pkg.StatusErr == nil && pkg.Status != status.NotInstalled
	case search.FilterUpdatesAvailable:
		return pkg.StatusErr == nil && pkg.Status == status.UpdateAvailable
	}
	return true
}

func stableOnly(versions []semver.Version) []semver.Version {
	out := make([]semver.Version, 0, len(versions))
	for _, v := range versions {
		if !v.IsPreRelease() {
			out = append(out, v)
		}
	}
	return out
}

type ids []Package

func (p ids) String(i int) string { return p[i].ID }
func (p ids) Len() int            { return len(p) }

// matchText orders fuzzy matches best first. Blank text keeps everything,
// sorted by id.
func matchText(pkgs []Package, text string) []Package {
	text = strings.TrimSpace(text)
	if text == "" {
		sort.SliceStable(pkgs, func(i, j int) bool {
			return strings.ToLower(pkgs[i].ID) < strings.ToLower(pkgs[j].ID)
		})
		return pkgs
	}
	matches := fuzzy.FindFrom(text, ids(pkgs))
	out := make([]Package, 0, len(matches))
	for _, m := range matches {
		out = append(out, pkgs[m.Index])
	}
	return out
}
