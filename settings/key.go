package settings

import "github.com/nulifyer/gugetctl/project"

const (
	SolutionKey        = "solution"
	UnknownProjectName = "unknown"
)

// Key scopes settings to the bound project when there is exactly one, and to
// the solution otherwise. It is cheap and callers recompute it on every use.
func Key(projects []project.Project) string {
	if len(projects) == 1 {
		return "project:" + ProjectName(projects[0])
	}
	return SolutionKey
}

// ProjectName falls back to "unknown" when the project has no name metadata.
func ProjectName(p project.Project) string {
	if name, ok := p.TryGetMetadata(project.MetadataName); ok && name != "" {
		return name
	}
	return UnknownProjectName
}
