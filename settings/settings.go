// Package settings persists per-project and per-solution UI settings.
package settings

import (
	"fmt"
	"strings"
)

// DependencyBehavior selects which dependency versions an install picks.
type DependencyBehavior int

const (
	DependencyIgnore DependencyBehavior = iota
	DependencyLowest
	DependencyHighestPatch
	DependencyHighestMinor
	DependencyHighest
)

var dependencyBehaviorNames = []string{"ignore", "lowest", "highest-patch", "highest-minor", "highest"}

func (d DependencyBehavior) String() string {
	if d < 0 || int(d) >= len(dependencyBehaviorNames) {
		return fmt.Sprintf("DependencyBehavior(%d)", int(d))
	}
	return dependencyBehaviorNames[d]
}

func (d DependencyBehavior) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DependencyBehavior) UnmarshalText(b []byte) error {
	for i, name := range dependencyBehaviorNames {
		if strings.EqualFold(name, strings.TrimSpace(string(b))) {
			*d = DependencyBehavior(i)
			return nil
		}
	}
	return fmt.Errorf("unknown dependency behavior %q", b)
}

// FileConflictAction decides what happens when an install would overwrite a
// file the user changed.
type FileConflictAction int

const (
	ConflictPromptUser FileConflictAction = iota
	ConflictOverwrite
	ConflictIgnore
	ConflictOverwriteAll
	ConflictIgnoreAll
)

var fileConflictActionNames = []string{"prompt", "overwrite", "ignore", "overwrite-all", "ignore-all"}

func (a FileConflictAction) String() string {
	if a < 0 || int(a) >= len(fileConflictActionNames) {
		return fmt.Sprintf("FileConflictAction(%d)", int(a))
	}
	return fileConflictActionNames[a]
}

func (a FileConflictAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *FileConflictAction) UnmarshalText(b []byte) error {
	for i, name := range fileConflictActionNames {
		if strings.EqualFold(name, strings.TrimSpace(string(b))) {
			*a = FileConflictAction(i)
			return nil
		}
	}
	return fmt.Errorf("unknown file conflict action %q", b)
}

type UserSettings struct {
	SourceRepository   string             `toml:"source_repository,omitempty"`
	ShowPreviewWindow  bool               `toml:"show_preview_window"`
	RemoveDependencies bool               `toml:"remove_dependencies"`
	ForceRemove        bool               `toml:"force_remove"`
	DependencyBehavior DependencyBehavior `toml:"dependency_behavior"`
	FileConflictAction FileConflictAction `toml:"file_conflict_action"`
}

func Defaults() UserSettings {
	return UserSettings{
		ShowPreviewWindow:  true,
		DependencyBehavior: DependencyLowest,
		FileConflictAction: ConflictPromptUser,
	}
}

// Store is a key-value settings store. Get returns nil, nil for an absent
// key. Add is not guaranteed durable until the store is flushed.
type Store interface {
	Get(key string) (*UserSettings, error)
	Add(key string, s UserSettings) error
}

// Flusher is implemented by stores that buffer writes.
type Flusher interface {
	Save() error
}
