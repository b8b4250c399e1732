package project

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// FindProjectFiles walks rootDir and returns all .csproj and .fsproj paths,
// skipping common build-output and metadata directories.
func FindProjectFiles(rootDir string) ([]string, error) {
	ignoreDirs := []string{
		"node_modules", "bower_components", "dist", "build",
		"bin", "obj", "packages", ".nuget",
		".git", ".hg", ".svn",
		".vs", ".idea", ".vscode",
		".venv", "venv",
		".cache", "tmp", "vendor", "coverage",
		"out",
	}

	ignore := make(map[string]struct{}, len(ignoreDirs))
	for _, d := range ignoreDirs {
		ignore[d] = struct{}{}
	}

	var projects []string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, ok := ignore[strings.ToLower(d.Name())]; ok && path != rootDir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".csproj" || ext == ".fsproj" {
			projects = append(projects, path)
		}
		return nil
	})
	return projects, err
}

// OpenAll opens every path concurrently and keeps the input order. The first
// failure cancels the rest.
func OpenAll(ctx context.Context, paths []string) ([]*Csproj, error) {
	out := make([]*Csproj, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := Open(path)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// AsProjects widens a slice of concrete projects to the interface type.
func AsProjects[P Project](ps []P) []Project {
	out := make([]Project, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}
