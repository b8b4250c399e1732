// Package status classifies a package against the projects it could be
// installed into.
package status

import (
	"context"
	"fmt"
	"strings"

	"github.com/nulifyer/gugetctl/project"
	"github.com/nulifyer/gugetctl/semver"
)

type Status int

const (
	NotInstalled Status = iota
	Installed
	UpdateAvailable
)

func (s Status) String() string {
	switch s {
	case NotInstalled:
		return "not installed"
	case Installed:
		return "installed"
	case UpdateAvailable:
		return "update available"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// NoStableVersionError is returned when a package offers only prerelease
// versions, so there is nothing to compare installed versions against.
type NoStableVersionError struct {
	PackageID string
}

func (e *NoStableVersionError) Error() string {
	return fmt.Sprintf("package %s has no stable version", e.PackageID)
}

// Resolve compares the lowest version of packageID installed in any of the
// projects against the newest stable version in versions. The lowest one
// wins because it is the install that needs attention.
//
// Projects are queried one after another. Neither versions nor projects are
// modified.
func Resolve(ctx context.Context, packageID string, versions []semver.Version, projects []project.Project) (Status, error) {
	latestStable, ok := semver.LatestStable(versions)
	if !ok {
		return NotInstalled, &NoStableVersionError{PackageID: packageID}
	}

	var minimum *project.InstalledPackageReference
	for _, p := range projects {
		refs, err := p.InstalledPackages(ctx)
		if err != nil {
			return NotInstalled, fmt.Errorf("query installed packages: %w", err)
		}
		for _, ref := range refs {
			if ref == nil || !strings.EqualFold(ref.Identity.ID, packageID) {
				continue
			}
			if minimum == nil || ref.Identity.Version.Less(minimum.Identity.Version) {
				minimum = ref
			}
		}
	}

	switch {
	case minimum == nil:
		return NotInstalled, nil
	case minimum.Identity.Version.Less(latestStable):
		return UpdateAvailable, nil
	default:
		return Installed, nil
	}
}
