package source

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/nulifyer/gugetctl/logger"
)

const (
	DefaultSourceName     = "nuget.org"
	DefaultSourceLocation = "https://api.nuget.org/v3/index.json"
)

// ─────────────────────────────────────────────
// NuGet.config XML types
// ─────────────────────────────────────────────

type nugetConfig struct {
	XMLName              xml.Name                 `xml:"configuration"`
	PackageSources       []keyValue               `xml:"packageSources>add"`
	PackageSourcesClear  []struct{}               `xml:"packageSources>clear"`
	DisabledSources      []keyValue               `xml:"disabledPackageSources>add"`
	ActivePackageSource  []keyValue               `xml:"activePackageSource>add"`
	PackageSourceMapping []packageSourceMappingXML `xml:"packageSourceMapping"`
}

type keyValue struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// ─────────────────────────────────────────────
// ConfigProvider
// ─────────────────────────────────────────────

// ConfigProvider reads sources from the nuget.config chain that applies to
// a directory. Call Reload (or run Watch) to pick up edits; listeners are
// notified only when the source list actually changed.
type ConfigProvider struct {
	root          string
	userConfig    string
	machineConfig string
	store         ActiveStore

	mu           sync.Mutex
	sources      []PackageSource
	mapping      *Mapping
	configActive string
	activeName   string
	listeners    map[int]func()
	nextListener int
}

type Option func(*ConfigProvider)

func WithUserConfig(path string) Option    { return func(p *ConfigProvider) { p.userConfig = path } }
func WithMachineConfig(path string) Option { return func(p *ConfigProvider) { p.machineConfig = path } }

// WithActiveStore persists SaveActivePackageSource beyond the process.
func WithActiveStore(s ActiveStore) Option { return func(p *ConfigProvider) { p.store = s } }

func NewConfigProvider(root string, opts ...Option) *ConfigProvider {
	p := &ConfigProvider{
		root:          root,
		userConfig:    userNugetConfigPath(),
		machineConfig: machineNugetConfigPath(),
		listeners:     make(map[int]func()),
	}
	for _, o := range opts {
		o(p)
	}
	p.sources, p.mapping, p.configActive = p.detect()
	if p.store != nil {
		p.activeName = p.store.ActiveSourceName()
	}
	return p
}

func (p *ConfigProvider) Sources() []PackageSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.sources)
}

func (p *ConfigProvider) EnabledSources() []PackageSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Enabled(p.sources)
}

func (p *ConfigProvider) Mapping() *Mapping {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mapping
}

// ActivePackageSourceName prefers the name saved by a previous session over
// the <activePackageSource> element of the config chain.
func (p *ConfigProvider) ActivePackageSourceName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.activeName != "" {
		return p.activeName
	}
	return p.configActive
}

func (p *ConfigProvider) SaveActivePackageSource(src PackageSource) {
	p.mu.Lock()
	p.activeName = src.Name
	store := p.store
	p.mu.Unlock()

	if store == nil {
		return
	}
	if err := store.SetActiveSourceName(src.Name); err != nil {
		logger.Warn("could not persist active source %q: %v", src.Name, err)
	}
}

func (p *ConfigProvider) OnSourcesChanged(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Reload re-reads the config chain and notifies listeners on the calling
// goroutine when the source list changed. It reports whether it did.
func (p *ConfigProvider) Reload() bool {
	sources, mapping, configActive := p.detect()

	p.mu.Lock()
	changed := !slices.Equal(sources, p.sources)
	p.sources = sources
	p.mapping = mapping
	p.configActive = configActive
	listeners := make([]func(), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	if !changed {
		logger.Trace("source reload: no change")
		return false
	}
	logger.Info("package sources changed (%d source(s))", len(sources))
	for _, fn := range listeners {
		fn()
	}
	return true
}

// ─────────────────────────────────────────────
// Detection
// ─────────────────────────────────────────────

// configChain lists the files consulted, highest priority first:
// project dir and its parents, then the user and machine configs.
func (p *ConfigProvider) configChain() []string {
	var chain []string
	dir := p.root
	for {
		chain = append(chain,
			filepath.Join(dir, "nuget.config"),
			filepath.Join(dir, "NuGet.Config"),
			filepath.Join(dir, ".nuget", "NuGet.Config"),
			filepath.Join(dir, "Directory.Build.props"),
		)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return append(chain, p.userConfig, p.machineConfig)
}

// detect walks the chain. A <clear /> inside <packageSources> stops
// inheritance from lower-priority files. Duplicate locations are dropped and
// nuget.org is used when nothing is configured. Disabled entries are kept
// with Enabled=false so callers can show them.
func (p *ConfigProvider) detect() ([]PackageSource, *Mapping, string) {
	var (
		sources      []PackageSource
		seen         = make(map[string]bool)
		disabled     = make(map[string]bool)
		mapping      = &Mapping{}
		configActive string
		parsedFiles  []os.FileInfo
	)

	add := func(s PackageSource) {
		key := strings.ToLower(strings.TrimRight(s.Location, `/\`))
		if seen[key] {
			return
		}
		seen[key] = true
		sources = append(sources, s)
	}

	for _, path := range p.configChain() {
		if path == "" {
			continue
		}
		if strings.EqualFold(filepath.Base(path), "Directory.Build.props") {
			for _, s := range sourcesFromBuildProps(path) {
				add(s)
			}
			continue
		}
		// nuget.config and NuGet.Config are the same file on
		// case-insensitive filesystems.
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		if slices.ContainsFunc(parsedFiles, func(fi os.FileInfo) bool { return os.SameFile(fi, st) }) {
			continue
		}
		parsedFiles = append(parsedFiles, st)

		cfg, ok := readNugetConfig(path)
		if !ok {
			continue
		}
		for _, d := range cfg.DisabledSources {
			if strings.EqualFold(d.Value, "true") || d.Value == "" {
				disabled[keyOf(d.Key)] = true
			}
		}
		if configActive == "" && len(cfg.ActivePackageSource) > 0 {
			configActive = cfg.ActivePackageSource[0].Key
		}
		for _, m := range cfg.PackageSourceMapping {
			mapping.merge(m)
		}
		for _, ps := range cfg.PackageSources {
			if strings.TrimSpace(ps.Value) == "" {
				continue
			}
			add(PackageSource{Name: ps.Key, Location: resolveLocation(ps.Value, filepath.Dir(path))})
		}
		if len(cfg.PackageSourcesClear) > 0 {
			logger.Trace("detect: %q declares <clear/>, stopping inheritance", path)
			break
		}
	}

	if len(sources) == 0 {
		add(PackageSource{Name: DefaultSourceName, Location: DefaultSourceLocation})
	}
	for i := range sources {
		sources[i].Enabled = !disabled[keyOf(sources[i].Name)]
	}
	return sources, mapping, configActive
}

func keyOf(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func readNugetConfig(path string) (nugetConfig, bool) {
	var cfg nugetConfig
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Trace("readNugetConfig: skipping %q (%v)", path, err)
		return cfg, false
	}
	if err := xml.Unmarshal(data, &cfg); err != nil {
		logger.Warn("ignoring malformed %s: %v", path, err)
		return cfg, false
	}
	logger.Trace("readNugetConfig: %q has %d source(s)", path, len(cfg.PackageSources))
	return cfg, true
}

// resolveLocation makes relative folder feeds absolute against the config
// file that declared them. URLs pass through.
func resolveLocation(value, configDir string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "://") || filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(configDir, value)
}

func sourcesFromBuildProps(path string) []PackageSource {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	type propertyGroup struct {
		RestoreSources string `xml:"RestoreSources"`
	}
	type msbuild struct {
		PropertyGroups []propertyGroup `xml:"PropertyGroup"`
	}

	var props msbuild
	if err := xml.Unmarshal(data, &props); err != nil {
		return nil
	}

	var sources []PackageSource
	for _, pg := range props.PropertyGroups {
		for _, raw := range strings.Split(pg.RestoreSources, ";") {
			raw = strings.TrimSpace(raw)
			if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
				sources = append(sources, PackageSource{Name: raw, Location: raw})
			}
		}
	}
	return sources
}

// ─────────────────────────────────────────────
// OS-specific config paths
// ─────────────────────────────────────────────

func userNugetConfigPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "NuGet", "NuGet.Config")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nuget", "NuGet", "NuGet.Config")
}

func machineNugetConfigPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("ProgramData"), "NuGet", "NuGet.Config")
	}
	return "/etc/opt/nuget/NuGet.Config"
}
