// Package selector keeps one active package source stable while the set of
// enabled sources changes underneath it.
package selector

import (
	"github.com/nulifyer/gugetctl/logger"
	"github.com/nulifyer/gugetctl/source"
)

// ListView is the source picker widget. Both calls may fire the widget's
// selection-changed event synchronously.
type ListView interface {
	SetItems(sources []source.PackageSource)
	SetSelected(index int)
}

// Hooks are the side effects a change of active source causes. Either may
// be nil.
type Hooks struct {
	SaveSettings func()
	Search       func()
}

// Selector owns the active source slot. It is not safe for concurrent use;
// events from other goroutines must be marshaled to the owner first.
type Selector struct {
	provider source.Provider
	view     ListView
	hooks    Hooks

	listed     []source.PackageSource
	active     *source.PackageSource
	rebuilding bool
}

func New(provider source.Provider, view ListView, hooks Hooks) *Selector {
	return &Selector{provider: provider, view: view, hooks: hooks}
}

// Reconcile picks the active source after the source list was replaced. The
// result always points into newSources, never at the stale old value.
func Reconcile(newSources []source.PackageSource, oldActive *source.PackageSource) *source.PackageSource {
	if len(newSources) == 0 {
		return nil
	}
	if oldActive != nil {
		if i := source.Find(newSources, oldActive.Name); i >= 0 {
			return &newSources[i]
		}
	}
	return &newSources[0]
}

// Changed reports whether moving from old to next warrants a new search. A
// rebind to an equal source from a fresh list does not.
func Changed(old, next *source.PackageSource) bool {
	if old == nil || next == nil {
		return old != next
	}
	return !source.SameName(old.Name, next.Name) || !source.SameLocation(old.Location, next.Location)
}

// Init fills the picker and chooses the starting source: the saved name when
// there is one, else the provider's active name, else the first source.
func (s *Selector) Init(savedName string) {
	s.rebuilding = true
	defer func() { s.rebuilding = false }()

	s.listed = s.provider.EnabledSources()
	s.setItems()

	name := savedName
	if name == "" {
		name = s.provider.ActivePackageSourceName()
	}
	s.active = nil
	if i := source.Find(s.listed, name); name != "" && i >= 0 {
		s.active = &s.listed[i]
	} else if len(s.listed) > 0 {
		if name != "" {
			logger.Debug("source %q is not enabled, using %s", name, s.listed[0].Name)
		}
		s.active = &s.listed[0]
	}
	s.selectActive()
}

// SourcesChanged handles the provider's notification. Selection events the
// picker raises while it is rebuilt are ignored; only the reconciled result
// decides whether a search starts.
func (s *Selector) SourcesChanged() {
	s.rebuilding = true
	defer func() { s.rebuilding = false }()

	old := s.active
	s.listed = s.provider.EnabledSources()
	s.setItems()

	s.active = Reconcile(s.listed, old)
	s.selectActive()
	if s.active != nil {
		s.provider.SaveActivePackageSource(*s.active)
	}

	if Changed(old, s.active) {
		logger.Info("active source changed: %s", describe(s.active))
		s.saveSettings()
		s.search()
	}
}

// SelectionChanged is the picker's event handler. A nil choice keeps the
// active source and puts the picker back on it.
func (s *Selector) SelectionChanged(chosen *source.PackageSource) {
	if s.rebuilding {
		logger.Trace("selection change suppressed during rebuild")
		return
	}
	if chosen == nil {
		s.keepListed()
		return
	}
	s.SelectExplicit(*chosen)
}

// SelectExplicit makes chosen the active source because the user asked for
// it. It always persists and always searches, unless chosen is not listed:
// then the active source stays a listed one and nothing is persisted.
func (s *Selector) SelectExplicit(chosen source.PackageSource) {
	i := source.Find(s.listed, chosen.Name)
	if i < 0 {
		logger.Debug("source %q is not enabled, keeping %s", chosen.Name, describe(s.active))
		s.keepListed()
		return
	}
	s.active = &s.listed[i]
	s.provider.SaveActivePackageSource(*s.active)
	s.saveSettings()
	s.search()
}

// keepListed re-points the active source into the listed set and resyncs
// the picker without persisting or searching.
func (s *Selector) keepListed() {
	s.rebuilding = true
	defer func() { s.rebuilding = false }()

	s.active = Reconcile(s.listed, s.active)
	s.selectActive()
}

// Active returns the active source, or nil when no source is enabled.
func (s *Selector) Active() *source.PackageSource { return s.active }

// Sources is the list currently shown in the picker.
func (s *Selector) Sources() []source.PackageSource { return s.listed }

// Rebuilding reports whether a source-list rebuild is in progress.
func (s *Selector) Rebuilding() bool { return s.rebuilding }

func (s *Selector) setItems() {
	if s.view != nil {
		s.view.SetItems(s.listed)
	}
}

func (s *Selector) selectActive() {
	if s.view == nil {
		return
	}
	idx := -1
	if s.active != nil {
		idx = source.Find(s.listed, s.active.Name)
	}
	s.view.SetSelected(idx)
}

func (s *Selector) saveSettings() {
	if s.hooks.SaveSettings != nil {
		s.hooks.SaveSettings()
	}
}

func (s *Selector) search() {
	if s.hooks.Search != nil {
		s.hooks.Search()
	}
}

func describe(src *source.PackageSource) string {
	if src == nil {
		return "(none)"
	}
	return src.Name
}
