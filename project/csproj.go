package project

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nulifyer/gugetctl/logger"
	"github.com/nulifyer/gugetctl/semver"
)

// ─────────────────────────────────────────────
// MSBuild XML types
// ─────────────────────────────────────────────

type importElement struct {
	Project string `xml:"Project,attr"`
}

type msbuildProject struct {
	XMLName        xml.Name        `xml:"Project"`
	PropertyGroups []propertyGroup `xml:"PropertyGroup"`
	ItemGroups     []itemGroup     `xml:"ItemGroup"`
	Imports        []importElement `xml:"Import"`
}

type propertyGroup struct {
	AssemblyName     string `xml:"AssemblyName"`
	TargetFramework  string `xml:"TargetFramework"`
	TargetFrameworks string `xml:"TargetFrameworks"`
}

type itemGroup struct {
	PackageReferences []rawPackageReference `xml:"PackageReference"`
	PackageVersions   []rawPackageReference `xml:"PackageVersion"`
}

type rawPackageReference struct {
	Include        string `xml:"Include,attr"`
	Version        string `xml:"Version,attr"`
	VersionElement string `xml:"Version"`
}

func (r rawPackageReference) version() string {
	if r.Version != "" {
		return r.Version
	}
	return strings.TrimSpace(r.VersionElement)
}

// ─────────────────────────────────────────────
// Csproj
// ─────────────────────────────────────────────

// Csproj is a .csproj/.fsproj file. Every InstalledPackages call re-reads the
// file and its imports, so installs made elsewhere are seen immediately.
type Csproj struct {
	path string
	name string
}

// Open checks that path parses as an MSBuild project.
func Open(path string) (*Csproj, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	c := &Csproj{path: abs, name: strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))}
	parsed, err := c.parse()
	if err != nil {
		return nil, err
	}
	if parsed.assemblyName != "" {
		c.name = parsed.assemblyName
	}
	return c, nil
}

func (c *Csproj) Path() string { return c.path }

func (c *Csproj) TryGetMetadata(key string) (string, bool) {
	switch key {
	case MetadataName:
		return c.name, c.name != ""
	case MetadataFullPath:
		return c.path, true
	case MetadataTargetFrameworks:
		parsed, err := c.parse()
		if err != nil || len(parsed.frameworks) == 0 {
			return "", false
		}
		return strings.Join(parsed.frameworks, ";"), true
	}
	return "", false
}

func (c *Csproj) InstalledPackages(ctx context.Context) ([]*InstalledPackageReference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, err := c.parse()
	if err != nil {
		return nil, err
	}
	refs := make([]*InstalledPackageReference, 0, len(parsed.order))
	for _, key := range parsed.order {
		r := parsed.packages[key]
		refs = append(refs, &InstalledPackageReference{Identity: r})
	}
	return refs, nil
}

type parsedProject struct {
	assemblyName string
	frameworks   []string
	packages     map[string]PackageIdentity // lowercase id → identity
	order        []string
	central      map[string]string // lowercase id → version from Directory.Packages.props
}

func (pp *parsedProject) add(raw rawPackageReference, override bool) {
	if raw.Include == "" {
		return
	}
	key := strings.ToLower(raw.Include)
	v := raw.version()
	if v == "" {
		v = pp.central[key]
	}
	if _, exists := pp.packages[key]; exists && !override {
		return
	}
	if _, exists := pp.packages[key]; !exists {
		pp.order = append(pp.order, key)
	}
	pp.packages[key] = PackageIdentity{ID: raw.Include, Version: semver.Parse(v)}
}

func (c *Csproj) parse() (*parsedProject, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var proj msbuildProject
	if err := xml.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("failed to parse XML in %s: %w", c.path, err)
	}

	result := &parsedProject{
		packages: make(map[string]PackageIdentity),
		central:  make(map[string]string),
	}
	projectDir := filepath.Dir(c.path)

	if cpm := findUpwards(projectDir, "Directory.Packages.props"); cpm != "" {
		if p, err := parsePropsFile(cpm); err == nil {
			for _, ig := range p.ItemGroups {
				for _, pv := range ig.PackageVersions {
					result.central[strings.ToLower(pv.Include)] = pv.version()
				}
			}
		}
	}

	mergePropertyGroups(result, proj.PropertyGroups)
	for _, ig := range proj.ItemGroups {
		for _, raw := range ig.PackageReferences {
			result.add(raw, true)
		}
	}

	visited := map[string]bool{c.path: true}
	if dbp := findUpwards(projectDir, "Directory.Build.props"); dbp != "" {
		collectPropsPackages(result, dbp, projectDir, visited)
	}
	for _, imp := range proj.Imports {
		resolved, err := resolveImportPath(imp.Project, projectDir, projectDir)
		if err != nil {
			logger.Debug("Skipping import in %s: %v", c.path, err)
			continue
		}
		collectPropsPackages(result, resolved, projectDir, visited)
	}
	return result, nil
}

func mergePropertyGroups(result *parsedProject, groups []propertyGroup) {
	for _, pg := range groups {
		if pg.AssemblyName != "" && result.assemblyName == "" && !strings.Contains(pg.AssemblyName, "$(") {
			result.assemblyName = strings.TrimSpace(pg.AssemblyName)
		}
		for _, fw := range strings.Split(pg.TargetFramework+";"+pg.TargetFrameworks, ";") {
			fw = strings.TrimSpace(fw)
			if fw != "" && !containsFold(result.frameworks, fw) {
				result.frameworks = append(result.frameworks, fw)
			}
		}
	}
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}

// findUpwards walks up from startDir looking for name and returns its full
// path, or "" when no ancestor has one.
func findUpwards(startDir, name string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// resolveImportPath resolves MSBuild-style import paths with basic variable
// substitution. referringFileDir contains the file with the <Import>.
func resolveImportPath(rawPath, referringFileDir, projectDir string) (string, error) {
	resolved := rawPath
	resolved = strings.ReplaceAll(resolved, "$(MSBuildThisFileDirectory)", referringFileDir+string(os.PathSeparator))
	resolved = strings.ReplaceAll(resolved, "$(ProjectDir)", projectDir+string(os.PathSeparator))

	if strings.Contains(resolved, "$(") {
		return "", fmt.Errorf("unresolved MSBuild variable in import path: %s", rawPath)
	}

	resolved = filepath.FromSlash(strings.ReplaceAll(resolved, `\`, "/"))
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(referringFileDir, resolved)
	}
	return filepath.Clean(resolved), nil
}

func parsePropsFile(filePath string) (*msbuildProject, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read props file: %w", err)
	}
	var proj msbuildProject
	if err := xml.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("failed to parse props XML: %w", err)
	}
	return &proj, nil
}

// collectPropsPackages merges a .props file's PackageReferences into result,
// recursing into nested imports. The project file itself takes precedence.
func collectPropsPackages(result *parsedProject, propsPath, projectDir string, visited map[string]bool) {
	absPath, err := filepath.Abs(propsPath)
	if err != nil {
		logger.Warn("Could not resolve absolute path for %s: %v", propsPath, err)
		return
	}
	if visited[absPath] {
		return
	}
	visited[absPath] = true

	props, err := parsePropsFile(absPath)
	if err != nil {
		logger.Debug("Failed to parse props file %s: %v", absPath, err)
		return
	}
	for _, ig := range props.ItemGroups {
		for _, raw := range ig.PackageReferences {
			result.add(raw, false)
		}
	}
	mergePropertyGroups(result, props.PropertyGroups)

	propsDir := filepath.Dir(absPath)
	for _, imp := range props.Imports {
		resolved, err := resolveImportPath(imp.Project, propsDir, projectDir)
		if err != nil {
			logger.Debug("Skipping nested import in %s: %v", absPath, err)
			continue
		}
		collectPropsPackages(result, resolved, projectDir, visited)
	}
}
