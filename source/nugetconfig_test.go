package source

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newTestProvider isolates the provider from the real user/machine configs.
func newTestProvider(t *testing.T, root string, opts ...Option) *ConfigProvider {
	t.Helper()
	home := t.TempDir()
	opts = append([]Option{
		WithUserConfig(filepath.Join(home, "user", "NuGet.Config")),
		WithMachineConfig(filepath.Join(home, "machine", "NuGet.Config")),
	}, opts...)
	return NewConfigProvider(root, opts...)
}

type memActiveStore struct{ name string }

func (m *memActiveStore) ActiveSourceName() string { return m.name }
func (m *memActiveStore) SetActiveSourceName(name string) error {
	m.name = name
	return nil
}

func TestConfigProvider_DefaultsToNugetOrg(t *testing.T) {
	p := newTestProvider(t, t.TempDir())
	got := p.EnabledSources()
	if len(got) != 1 || got[0].Name != DefaultSourceName || got[0].Location != DefaultSourceLocation {
		t.Fatalf("EnabledSources() = %+v, want only nuget.org", got)
	}
}

func TestConfigProvider_OrderDisabledAndActive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "nuget.config"), `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSources>
    <add key="internal" value="https://pkgs.example.com/v3/index.json" />
    <add key="nuget.org" value="https://api.nuget.org/v3/index.json" />
    <add key="local" value="./packages-local" />
  </packageSources>
  <disabledPackageSources>
    <add key="Internal" value="true" />
  </disabledPackageSources>
  <activePackageSource>
    <add key="nuget.org" value="https://api.nuget.org/v3/index.json" />
  </activePackageSource>
</configuration>`)

	p := newTestProvider(t, root)

	all := p.Sources()
	if len(all) != 3 {
		t.Fatalf("Sources() len = %d, want 3: %+v", len(all), all)
	}
	if all[0].Name != "internal" || all[0].Enabled {
		t.Errorf("first source = %+v, want disabled internal", all[0])
	}
	if want := filepath.Join(root, "packages-local"); all[2].Location != want {
		t.Errorf("local location = %q, want %q", all[2].Location, want)
	}

	enabled := p.EnabledSources()
	if len(enabled) != 2 || enabled[0].Name != "nuget.org" || enabled[1].Name != "local" {
		t.Errorf("EnabledSources() = %+v", enabled)
	}
	if got := p.ActivePackageSourceName(); got != "nuget.org" {
		t.Errorf("ActivePackageSourceName() = %q, want nuget.org", got)
	}
}

func TestConfigProvider_ClearStopsInheritance(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "src")
	writeFile(t, filepath.Join(parent, "nuget.config"), `<configuration><packageSources>
  <add key="parent" value="https://parent.example.com/index.json" />
</packageSources></configuration>`)
	writeFile(t, filepath.Join(child, "nuget.config"), `<configuration><packageSources>
  <clear />
  <add key="child" value="https://child.example.com/index.json" />
</packageSources></configuration>`)

	got := newTestProvider(t, child).EnabledSources()
	if len(got) != 1 || got[0].Name != "child" {
		t.Fatalf("EnabledSources() = %+v, want only child", got)
	}
}

func TestConfigProvider_SaveActiveUsesStore(t *testing.T) {
	store := &memActiveStore{name: "saved"}
	p := newTestProvider(t, t.TempDir(), WithActiveStore(store))
	if got := p.ActivePackageSourceName(); got != "saved" {
		t.Fatalf("ActivePackageSourceName() = %q, want saved", got)
	}
	p.SaveActivePackageSource(PackageSource{Name: "nuget.org"})
	if store.name != "nuget.org" {
		t.Errorf("store name = %q, want nuget.org", store.name)
	}
	if got := p.ActivePackageSourceName(); got != "nuget.org" {
		t.Errorf("ActivePackageSourceName() = %q, want nuget.org", got)
	}
}

func TestConfigProvider_ReloadNotifiesOnlyOnChange(t *testing.T) {
	root := t.TempDir()
	cfg := filepath.Join(root, "nuget.config")
	writeFile(t, cfg, `<configuration><packageSources>
  <add key="a" value="https://a.example.com/index.json" />
</packageSources></configuration>`)

	p := newTestProvider(t, root)
	var calls atomic.Int32
	cancel := p.OnSourcesChanged(func() { calls.Add(1) })

	if p.Reload() {
		t.Error("Reload() without edits reported a change")
	}
	writeFile(t, cfg, `<configuration><packageSources>
  <add key="a" value="https://a.example.com/index.json" />
  <add key="b" value="https://b.example.com/index.json" />
</packageSources></configuration>`)
	if !p.Reload() {
		t.Error("Reload() after edit reported no change")
	}
	if calls.Load() != 1 {
		t.Errorf("listener calls = %d, want 1", calls.Load())
	}

	cancel()
	writeFile(t, cfg, `<configuration><packageSources /></configuration>`)
	p.Reload()
	if calls.Load() != 1 {
		t.Errorf("listener called after cancel: %d", calls.Load())
	}
}
