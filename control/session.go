// Package control is the package manager control with the widgets taken
// out: it owns the active source, the search parameters and the per-project
// settings, and decides when a new search or a status refresh is due.
package control

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nulifyer/gugetctl/dispatch"
	"github.com/nulifyer/gugetctl/logger"
	"github.com/nulifyer/gugetctl/project"
	"github.com/nulifyer/gugetctl/search"
	"github.com/nulifyer/gugetctl/selector"
	"github.com/nulifyer/gugetctl/settings"
	"github.com/nulifyer/gugetctl/source"
	"github.com/nulifyer/gugetctl/status"
)

type Config struct {
	Projects     []project.Project
	SolutionName string
	Provider     source.Provider
	Store        settings.Store
	Searcher     search.Searcher
	Dispatcher   dispatch.Dispatcher
	Disclaimer   settings.Flag

	// SourceView is the source picker. Optional.
	SourceView selector.ListView

	Filter            search.Filter
	IncludePrerelease bool
}

// Session must only be used from the owner goroutine of its dispatcher.
type Session struct {
	id  string
	cfg Config
	sel *selector.Selector

	options           settings.UserSettings
	filter            search.Filter
	includePrerelease bool
	searchText        string

	initialized       bool
	disclaimerVisible bool
	unsubscribe       func()
}

// New builds the session, restores its settings and starts the first search.
func New(cfg Config) *Session {
	s := &Session{
		id:                uuid.NewString(),
		cfg:               cfg,
		filter:            cfg.Filter,
		includePrerelease: cfg.IncludePrerelease,
	}
	s.sel = selector.New(cfg.Provider, cfg.SourceView, selector.Hooks{
		SaveSettings: s.SaveSettings,
		Search:       s.searchActive,
	})

	saved := s.loadSettings()
	s.sel.Init(saved.SourceRepository)
	if active := s.sel.Active(); active != nil && cfg.Provider != nil {
		cfg.Provider.SaveActivePackageSource(*active)
	}
	s.options = saved
	s.options.SourceRepository = ""

	s.initialized = true
	s.disclaimerVisible = !settings.DisclaimerSuppressed(cfg.Disclaimer)
	if cfg.Provider != nil {
		s.unsubscribe = cfg.Provider.OnSourcesChanged(func() {
			s.SourcesChanged(context.Background())
		})
	}

	logger.Debug("[%s] session for %s, %d project(s), key %s", s.shortID(), s.Title(), len(cfg.Projects), s.SettingsKey())
	s.searchActive()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) shortID() string { return s.id[:8] }

// SettingsKey is derived afresh from the bound projects on every call.
func (s *Session) SettingsKey() string { return settings.Key(s.cfg.Projects) }

func (s *Session) Title() string {
	if len(s.cfg.Projects) == 1 {
		return "Package Manager: " + settings.ProjectName(s.cfg.Projects[0])
	}
	name := s.cfg.SolutionName
	if name == "" {
		name = settings.SolutionKey
	}
	return "Package Manager: " + name
}

func (s *Session) Projects() []project.Project { return s.cfg.Projects }

// ─────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────

func (s *Session) loadSettings() settings.UserSettings {
	if s.cfg.Store == nil {
		return settings.Defaults()
	}
	key := s.SettingsKey()
	saved, err := s.cfg.Store.Get(key)
	if err != nil {
		logger.Warn("settings for %s unavailable, using defaults: %v", key, err)
		return settings.Defaults()
	}
	if saved == nil {
		return settings.Defaults()
	}
	return *saved
}

// Settings returns what SaveSettings would store right now.
func (s *Session) Settings() settings.UserSettings {
	out := s.options
	out.SourceRepository = ""
	if active := s.sel.Active(); active != nil {
		out.SourceRepository = active.Name
	}
	return out
}

// SaveSettings hands the current settings to the store. They are only
// durable after Flush.
func (s *Session) SaveSettings() {
	if s.cfg.Store == nil {
		return
	}
	key := s.SettingsKey()
	if err := s.cfg.Store.Add(key, s.Settings()); err != nil {
		logger.Warn("saving settings for %s: %v", key, err)
	}
}

// Flush asks the store to persist buffered settings.
func (s *Session) Flush() {
	f, ok := s.cfg.Store.(settings.Flusher)
	if !ok {
		return
	}
	if err := f.Save(); err != nil {
		logger.Warn("flushing settings: %v", err)
	}
}

// Options are the install options shown in the detail pane.
func (s *Session) Options() settings.UserSettings { return s.options }

func (s *Session) SetOptions(o settings.UserSettings) {
	o.SourceRepository = ""
	s.options = o
	s.SaveSettings()
}

// ─────────────────────────────────────────────
// Sources
// ─────────────────────────────────────────────

// SourcesChanged reconciles the active source with the provider's current
// list. Safe to call from any goroutine; the work runs on the owner.
func (s *Session) SourcesChanged(ctx context.Context) {
	s.marshal(ctx, func(context.Context) { s.sel.SourcesChanged() })
}

// SelectSource is the picker's selection-changed event for the source
// named name. An unknown name leaves the active source as it is.
func (s *Session) SelectSource(name string) {
	listed := s.sel.Sources()
	if i := source.Find(listed, name); i >= 0 {
		chosen := listed[i]
		s.sel.SelectionChanged(&chosen)
		return
	}
	s.sel.SelectionChanged(nil)
}

func (s *Session) ActiveSource() *source.PackageSource { return s.sel.Active() }

func (s *Session) Sources() []source.PackageSource { return s.sel.Sources() }

// Tooltip describes the active source, or is empty when there is none.
func (s *Session) Tooltip() string {
	active := s.sel.Active()
	if active == nil {
		return ""
	}
	return active.Tooltip()
}

// ─────────────────────────────────────────────
// Search
// ─────────────────────────────────────────────

func (s *Session) Filter() search.Filter { return s.filter }

func (s *Session) IncludePrerelease() bool { return s.includePrerelease }

func (s *Session) SearchText() string { return s.searchText }

func (s *Session) SetFilter(f search.Filter) {
	s.filter = f
	if s.initialized {
		s.searchActive()
	}
}

func (s *Session) SetIncludePrerelease(on bool) {
	s.includePrerelease = on
	if s.initialized {
		s.searchActive()
	}
}

// Search runs text against the active source. Blank text is ignored.
func (s *Session) Search(text string) {
	if strings.TrimSpace(text) == "" || !s.initialized {
		return
	}
	s.searchText = text
	s.searchActive()
}

func (s *Session) ClearSearch() {
	s.searchText = ""
	if s.initialized {
		s.searchActive()
	}
}

// Refresh starts the current search again.
func (s *Session) Refresh() {
	if s.initialized {
		s.searchActive()
	}
}

// Request is the search the session would start now.
func (s *Session) Request() search.Request {
	req := search.Request{
		Filter:            s.filter,
		IncludePrerelease: s.includePrerelease,
		Text:              s.searchText,
	}
	if active := s.sel.Active(); active != nil {
		src := *active
		req.Source = &src
	}
	return req
}

func (s *Session) searchActive() {
	if s.cfg.Searcher == nil {
		return
	}
	req := s.Request()
	logger.Debug("[%s] search %q in %s (%s, prerelease=%v)", s.shortID(), req.Text, sourceName(req.Source), req.Filter, req.IncludePrerelease)
	s.cfg.Searcher.Search(req)
}

func sourceName(src *source.PackageSource) string {
	if src == nil {
		return "(no source)"
	}
	return src.Name
}

// ─────────────────────────────────────────────
// Package status
// ─────────────────────────────────────────────

// UpdatePackageStatus refreshes the badges in view against the bound
// projects.
func (s *Session) UpdatePackageStatus(ctx context.Context, view status.View) error {
	return status.RefreshAll(ctx, view, s.cfg.Projects)
}

// PackagesMissingStatusChanged is the restore notification. It may arrive on
// any goroutine; once packages are no longer missing the statuses in view
// are refreshed on the owner. done, when set, runs on the owner afterwards.
func (s *Session) PackagesMissingStatusChanged(ctx context.Context, missing bool, view status.View, done func()) {
	if missing {
		return
	}
	s.marshal(ctx, func(ctx context.Context) {
		if err := s.UpdatePackageStatus(ctx, view); err != nil {
			logger.Warn("refreshing package status after restore: %v", err)
		}
		if done != nil {
			done()
		}
	})
}

// ─────────────────────────────────────────────
// Disclaimer
// ─────────────────────────────────────────────

func (s *Session) DisclaimerVisible() bool { return s.disclaimerVisible }

// SuppressDisclaimer hides the disclaimer now and in later sessions.
func (s *Session) SuppressDisclaimer() {
	s.disclaimerVisible = false
	settings.SuppressDisclaimer(s.cfg.Disclaimer)
}

// Close stops listening for source changes and flushes settings.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.Flush()
	logger.Debug("[%s] session closed", s.shortID())
}

func (s *Session) marshal(ctx context.Context, task dispatch.Task) {
	if s.cfg.Dispatcher == nil {
		task(ctx)
		return
	}
	dispatch.Marshal(ctx, s.cfg.Dispatcher, task)
}
