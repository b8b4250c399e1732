package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	bubble_tea "github.com/charmbracelet/bubbletea"

	"github.com/nulifyer/gugetctl/arger"
	"github.com/nulifyer/gugetctl/catalog"
	"github.com/nulifyer/gugetctl/control"
	"github.com/nulifyer/gugetctl/dispatch"
	"github.com/nulifyer/gugetctl/logger"
	"github.com/nulifyer/gugetctl/project"
	"github.com/nulifyer/gugetctl/search"
	"github.com/nulifyer/gugetctl/settings"
	"github.com/nulifyer/gugetctl/source"
)

// -------------------------------
// Setup & CLI Flags
// --------------------------------
const (
	Flag_NoColor    = "no-color"
	Flag_Verbosity  = "verbosity"
	Flag_ProjectDir = "project"
	Flag_Theme      = "theme"
	Flag_Catalog    = "catalog"
	Flag_Settings   = "settings"
	Flag_Filter     = "filter"
	Flag_Prerelease = "prerelease"
)

type BuiltFlags struct {
	NoColor    bool
	Verbosity  string
	ProjectDir string
	Theme      string
	Catalog    string
	Settings   string
	Filter     search.Filter
	Prerelease bool
}

func BuildFlags(flags map[string]arger.IParsedFlag) BuiltFlags {
	return BuiltFlags{
		NoColor:    arger.Get[bool](flags, Flag_NoColor),
		Verbosity:  arger.Get[string](flags, Flag_Verbosity),
		ProjectDir: arger.Get[string](flags, Flag_ProjectDir),
		Theme:      arger.Get[string](flags, Flag_Theme),
		Catalog:    arger.Get[string](flags, Flag_Catalog),
		Settings:   arger.Get[string](flags, Flag_Settings),
		Filter:     arger.Get[search.Filter](flags, Flag_Filter),
		Prerelease: arger.Get[bool](flags, Flag_Prerelease),
	}
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gugetctl")
}

func registerFlags() {
	noColor := arger.SwitchFlag(Flag_NoColor)
	noColor.Aliases = []string{"-nc", "--no-color"}
	noColor.Description = "Disable colored output in the terminal"
	arger.RegisterFlag(noColor)

	arger.RegisterFlag(arger.Flag[string]{
		Name:           Flag_Verbosity,
		Aliases:        []string{"-v", "--verbosity"},
		Default:        arger.Optional("warn"),
		Description:    "Set the logging verbosity level",
		ExpectedValues: []string{"none", "error", "err", "warn", "warning", "info", "debug", "dbg", "trace", "trc"},
		Parser:         func(s string) (string, error) { return strings.ToLower(s), nil },
	})
	arger.RegisterFlag(arger.Flag[string]{
		Name:       Flag_ProjectDir,
		Aliases:    []string{"-p", "--project"},
		Positional: true,
		DefaultFunc: func() string {
			dir, err := os.Getwd()
			if err != nil {
				logger.Fatal("Couldn't get current working directory")
			}
			return dir
		},
		Parser:      func(s string) (string, error) { return s, nil },
		Description: "Set the target project directory (defaults to current working directory)",
	})
	arger.RegisterFlag(arger.Flag[string]{
		Name:           Flag_Theme,
		Aliases:        []string{"-t", "--theme"},
		Default:        arger.Optional("auto"),
		ExpectedValues: validThemeNames,
		Parser:         func(s string) (string, error) { return strings.ToLower(s), nil },
		Description:    "Color theme",
	})
	arger.RegisterFlag(arger.Flag[string]{
		Name:        Flag_Catalog,
		Aliases:     []string{"-c", "--catalog"},
		DefaultFunc: func() string { return filepath.Join(configDir(), "catalog.toml") },
		Parser:      func(s string) (string, error) { return s, nil },
		Description: "Package catalog file searched by the package list",
	})
	arger.RegisterFlag(arger.Flag[string]{
		Name:        Flag_Settings,
		Aliases:     []string{"-s", "--settings"},
		DefaultFunc: settings.DefaultPath,
		Parser:      func(s string) (string, error) { return s, nil },
		Description: "Settings file holding per-project choices",
	})
	arger.RegisterFlag(arger.Flag[search.Filter]{
		Name:           Flag_Filter,
		Aliases:        []string{"-f", "--filter"},
		Default:        arger.Optional(search.FilterAll),
		ExpectedValues: []search.Filter{search.FilterAll, search.FilterInstalled, search.FilterUpdatesAvailable},
		Parser:         search.ParseFilter,
		Description:    "Initial package list filter",
	})
	prerelease := arger.SwitchFlag(Flag_Prerelease)
	prerelease.Aliases = []string{"-pre", "--prerelease"}
	prerelease.Description = "Include prerelease versions"
	arger.RegisterFlag(prerelease)
}

func Init() BuiltFlags {
	logger.SetColor(false)
	env_log_level := os.Getenv("LOG_LEVEL")
	if env_log_level != "" {
		logger.SetLevel(logger.ParseLevel(env_log_level))
	}

	registerFlags()
	parsedFlags, err := arger.Parse(os.Args[1:])
	if errors.Is(err, arger.ErrHelp) {
		arger.PrintUsage(os.Stdout)
		os.Exit(0)
	}
	if err != nil {
		logger.Error("%v", err)
		arger.PrintUsage(os.Stderr)
		os.Exit(1)
	}
	builtFlags := BuildFlags(parsedFlags)

	if env_log_level == "" {
		logger.SetLevel(logger.ParseLevel(builtFlags.Verbosity))
	}
	logger.SetColor(!builtFlags.NoColor)
	initTheme(builtFlags.Theme, builtFlags.NoColor)

	return builtFlags
}

// solutionName is the .sln file name under root, or the directory name.
func solutionName(root string) string {
	matches, _ := filepath.Glob(filepath.Join(root, "*.sln"))
	if len(matches) > 0 {
		return strings.TrimSuffix(filepath.Base(matches[0]), ".sln")
	}
	return filepath.Base(root)
}

// -------------------------------
// Main
// --------------------------------
func main() {
	builtFlags := Init()

	fullProjectPath, err := filepath.Abs(builtFlags.ProjectDir)
	if err != nil {
		logger.Fatal("Couldn't get absolute path for project directory: %v", err)
	}
	logger.Info("Starting gugetctl with project directory: %s", fullProjectPath)

	projectFiles, err := project.FindProjectFiles(fullProjectPath)
	if err != nil {
		logger.Fatal("Error finding projects: %v", err)
	}
	logger.Info("Found %d project(s)", len(projectFiles))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	csprojs, err := project.OpenAll(ctx, projectFiles)
	if err != nil {
		logger.Fatal("Error opening projects: %v", err)
	}
	projects := project.AsProjects(csprojs)

	store, err := settings.OpenFileStore(builtFlags.Settings)
	if err != nil {
		logger.Warn("Settings unavailable, using defaults: %v", err)
	}
	provider := source.NewConfigProvider(fullProjectPath, source.WithActiveStore(store))
	logger.Info("Detected %d NuGet source(s)", len(provider.Sources()))

	cat, err := catalog.Load(builtFlags.Catalog)
	if err != nil {
		logger.Fatal("Error loading catalog: %v", err)
	}
	logger.Info("Catalog %s lists %d package(s)", builtFlags.Catalog, len(cat.Packages))

	b := &board{markdown: &markdownRenderer{style: markdownStyle}}
	sink := newLogSink(256)
	p := bubble_tea.NewProgram(NewModel(ctx, b, sink), bubble_tea.WithAltScreen())

	b.searcher = &catalog.Searcher{
		Catalog:  cat,
		Projects: projects,
		Context:  ctx,
		Mapping:  provider.Mapping,
		Deliver:  func(r catalog.Result) { p.Send(searchResultsMsg{result: r}) },
	}
	b.dispatcher = &dispatch.Program{Sender: p}

	logger.SetOutput(sink)

	session := control.New(control.Config{
		Projects:          projects,
		SolutionName:      solutionName(fullProjectPath),
		Provider:          provider,
		Store:             store,
		Searcher:          b,
		Dispatcher:        b.dispatcher,
		Disclaimer:        settings.NewDisclaimerFlag(configDir()),
		SourceView:        b,
		Filter:            builtFlags.Filter,
		IncludePrerelease: builtFlags.Prerelease,
	})
	defer session.Close()
	b.session = session

	go func() {
		if err := provider.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Not watching NuGet config: %v", err)
		}
	}()
	go func() {
		err := project.Watch(ctx, projectFiles, func() {
			session.PackagesMissingStatusChanged(context.Background(), false, b, nil)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Not watching project files: %v", err)
		}
	}()

	if _, err := p.Run(); err != nil {
		logger.SetOutput(os.Stderr)
		logger.Fatal("TUI error: %v", err)
	}
}
