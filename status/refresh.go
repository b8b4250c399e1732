package status

import (
	"context"
	"errors"

	"github.com/nulifyer/gugetctl/logger"
	"github.com/nulifyer/gugetctl/project"
	"github.com/nulifyer/gugetctl/semver"
)

// Entry is a list item whose status can be recomputed in place.
type Entry interface {
	PackageID() string
	AllVersions() []semver.Version
	SetStatus(Status)
	SetStatusError(error)
}

// View is the visible package list.
type View interface {
	// ImpliesStatus is true when the current filter already selects by
	// status, so changed statuses change membership.
	ImpliesStatus() bool
	Items() []any
	Reload(ctx context.Context) error
}

// RefreshAll brings the statuses shown in view up to date. Filtered views are
// reloaded wholesale. Otherwise each Entry is resolved again; other item
// kinds are skipped. A failing entry keeps its previous status and records
// the error, and the remaining entries are still refreshed. The returned
// error is the reload error, or the per-entry errors joined.
func RefreshAll(ctx context.Context, view View, projects []project.Project) error {
	if view.ImpliesStatus() {
		return view.Reload(ctx)
	}

	var errs []error
	for _, item := range view.Items() {
		e, ok := item.(Entry)
		if !ok {
			continue
		}
		st, err := Resolve(ctx, e.PackageID(), e.AllVersions(), projects)
		if err != nil {
			logger.Warn("status for %s: %v", e.PackageID(), err)
			e.SetStatusError(err)
			errs = append(errs, err)
			continue
		}
		e.SetStatus(st)
	}
	return errors.Join(errs...)
}
