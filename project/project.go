// Package project exposes the installed packages of a target project.
package project

import (
	"context"

	"github.com/nulifyer/gugetctl/semver"
)

// Metadata keys understood by TryGetMetadata.
const (
	MetadataName             = "Name"
	MetadataFullPath         = "FullPath"
	MetadataTargetFrameworks = "TargetFrameworks"
)

type PackageIdentity struct {
	ID      string
	Version semver.Version
}

func (p PackageIdentity) String() string { return p.ID + " " + p.Version.String() }

// InstalledPackageReference belongs to exactly one project.
type InstalledPackageReference struct {
	Identity PackageIdentity
}

// Project is an install target. InstalledPackages may block on I/O.
type Project interface {
	InstalledPackages(ctx context.Context) ([]*InstalledPackageReference, error)
	TryGetMetadata(key string) (string, bool)
}
