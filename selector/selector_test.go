package selector

import (
	"testing"

	"github.com/nulifyer/gugetctl/source"
)

type fakeProvider struct {
	sources    []source.PackageSource
	activeName string
	saved      []string
}

func (p *fakeProvider) EnabledSources() []source.PackageSource {
	return append([]source.PackageSource(nil), p.sources...)
}

func (p *fakeProvider) ActivePackageSourceName() string { return p.activeName }

func (p *fakeProvider) SaveActivePackageSource(src source.PackageSource) {
	p.activeName = src.Name
	p.saved = append(p.saved, src.Name)
}

func (p *fakeProvider) OnSourcesChanged(func()) func() { return func() {} }

// echoView behaves like a combo box: changing its items or selection raises
// the selection-changed event synchronously.
type echoView struct {
	sel   *Selector
	items []source.PackageSource
}

func (v *echoView) SetItems(sources []source.PackageSource) {
	v.items = sources
	v.sel.SelectionChanged(nil)
}

func (v *echoView) SetSelected(index int) {
	if index < 0 || index >= len(v.items) {
		v.sel.SelectionChanged(nil)
		return
	}
	chosen := v.items[index]
	v.sel.SelectionChanged(&chosen)
}

type counters struct{ saves, searches int }

func newSelector(p *fakeProvider) (*Selector, *echoView, *counters) {
	c := &counters{}
	view := &echoView{}
	sel := New(p, view, Hooks{
		SaveSettings: func() { c.saves++ },
		Search:       func() { c.searches++ },
	})
	view.sel = sel
	return sel, view, c
}

func src(name, location string) source.PackageSource {
	return source.PackageSource{Name: name, Location: location, Enabled: true}
}

func TestReconcile(t *testing.T) {
	a, b, c := src("A", "https://a"), src("B", "https://b"), src("C", "https://c")
	tests := []struct {
		name string
		list []source.PackageSource
		old  *source.PackageSource
		want int // index into list, -1 for nil
	}{
		{"empty list", nil, &a, -1},
		{"empty list nil old", []source.PackageSource{}, nil, -1},
		{"nil old takes first", []source.PackageSource{b, c}, nil, 0},
		{"old kept by name", []source.PackageSource{a, b, c}, &b, 1},
		{"name match ignores case", []source.PackageSource{a, c}, &source.PackageSource{Name: "c"}, 1},
		{"old removed takes first", []source.PackageSource{a, c}, &b, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.list, tt.old)
			if tt.want < 0 {
				if got != nil {
					t.Errorf("Reconcile() = %v, want nil", got)
				}
				return
			}
			if got != &tt.list[tt.want] {
				t.Errorf("Reconcile() = %v, want element %d of the new list", got, tt.want)
			}
		})
	}
}

func TestReconcile_RebindsToNewInstance(t *testing.T) {
	old := src("Feed", "https://old")
	list := []source.PackageSource{src("Other", "x"), src("FEED", "https://new")}
	got := Reconcile(list, &old)
	if got != &list[1] {
		t.Fatalf("Reconcile() did not return the new list's element")
	}
	if got.Location != "https://new" {
		t.Errorf("Location = %q, want the new instance's", got.Location)
	}
}

func TestChanged(t *testing.T) {
	a := src("A", "https://a")
	tests := []struct {
		name      string
		old, next *source.PackageSource
		want      bool
	}{
		{"both nil", nil, nil, false},
		{"nil to source", nil, &a, true},
		{"source to nil", &a, nil, true},
		{"same values other instance", &a, &source.PackageSource{Name: "a", Location: "HTTPS://A/"}, false},
		{"location moved", &a, &source.PackageSource{Name: "A", Location: "https://b"}, true},
		{"renamed", &a, &source.PackageSource{Name: "B", Location: "https://a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Changed(tt.old, tt.next); got != tt.want {
				t.Errorf("Changed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInit_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		saved      string
		providerOn string
		want       string
	}{
		{"saved name wins", "b", "C", "B"},
		{"provider name when nothing saved", "", "c", "C"},
		{"saved name not enabled falls back to first", "gone", "C", "A"},
		{"nothing known takes first", "", "", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{
				sources:    []source.PackageSource{src("A", "a"), src("B", "b"), src("C", "c")},
				activeName: tt.providerOn,
			}
			sel, _, c := newSelector(p)
			sel.Init(tt.saved)
			if got := sel.Active(); got == nil || got.Name != tt.want {
				t.Fatalf("Active() = %v, want %s", got, tt.want)
			}
			if c.searches != 0 || c.saves != 0 {
				t.Errorf("Init caused %d searches and %d saves", c.searches, c.saves)
			}
		})
	}
}

func TestInit_NoSources(t *testing.T) {
	sel, _, _ := newSelector(&fakeProvider{activeName: "A"})
	sel.Init("A")
	if sel.Active() != nil {
		t.Errorf("Active() = %v, want nil", sel.Active())
	}
}

func TestSourcesChanged_SameSourceDoesNotSearch(t *testing.T) {
	p := &fakeProvider{sources: []source.PackageSource{src("A", "a"), src("B", "b")}}
	sel, _, c := newSelector(p)
	sel.Init("B")

	p.sources = []source.PackageSource{src("Z", "z"), src("b", "b")}
	sel.SourcesChanged()

	if got := sel.Active(); got == nil || got.Name != "b" {
		t.Fatalf("Active() = %v, want the rebound b", got)
	}
	if c.searches != 0 || c.saves != 0 {
		t.Errorf("searches = %d, saves = %d; want none for an unchanged source", c.searches, c.saves)
	}
	if len(p.saved) != 1 || p.saved[0] != "b" {
		t.Errorf("provider saved %v, want [b]", p.saved)
	}
	if sel.Rebuilding() {
		t.Error("guard still held after SourcesChanged")
	}
}

func TestSourcesChanged_RemovedSourceSearchesOnce(t *testing.T) {
	p := &fakeProvider{sources: []source.PackageSource{src("A", "a"), src("B", "b")}}
	sel, _, c := newSelector(p)
	sel.Init("B")

	p.sources = []source.PackageSource{src("A", "a")}
	sel.SourcesChanged()

	if got := sel.Active(); got == nil || got.Name != "A" {
		t.Fatalf("Active() = %v, want A", got)
	}
	if c.searches != 1 || c.saves != 1 {
		t.Errorf("searches = %d, saves = %d; want exactly one each", c.searches, c.saves)
	}
}

func TestSourcesChanged_AllRemoved(t *testing.T) {
	p := &fakeProvider{sources: []source.PackageSource{src("A", "a")}}
	sel, _, c := newSelector(p)
	sel.Init("")

	p.sources = nil
	sel.SourcesChanged()

	if sel.Active() != nil {
		t.Fatalf("Active() = %v, want nil", sel.Active())
	}
	if c.searches != 1 {
		t.Errorf("searches = %d, want 1", c.searches)
	}
	if len(p.saved) != 0 {
		t.Errorf("provider saved %v, want nothing for a nil source", p.saved)
	}

	p.sources = []source.PackageSource{src("B", "b")}
	sel.SourcesChanged()
	if got := sel.Active(); got == nil || got.Name != "B" {
		t.Fatalf("Active() = %v, want B", got)
	}
	if c.searches != 2 {
		t.Errorf("searches = %d, want 2", c.searches)
	}
}

func TestSourcesChanged_LocationMoved(t *testing.T) {
	p := &fakeProvider{sources: []source.PackageSource{src("A", "https://old")}}
	sel, _, c := newSelector(p)
	sel.Init("")

	p.sources = []source.PackageSource{src("A", "https://new")}
	sel.SourcesChanged()
	if c.searches != 1 {
		t.Errorf("searches = %d, want 1", c.searches)
	}
}

func TestSelectExplicit_AlwaysSearches(t *testing.T) {
	p := &fakeProvider{sources: []source.PackageSource{src("A", "a"), src("B", "b")}}
	sel, _, c := newSelector(p)
	sel.Init("A")

	sel.SelectExplicit(src("A", "a"))
	sel.SelectExplicit(src("b", "b"))

	if c.searches != 2 || c.saves != 2 {
		t.Errorf("searches = %d, saves = %d; want 2 each", c.searches, c.saves)
	}
	if got := sel.Active(); got != &sel.Sources()[1] {
		t.Errorf("Active() = %v, want the listed B", got)
	}
	if p.activeName != "B" {
		t.Errorf("provider active = %q, want B", p.activeName)
	}
}

func TestSelectionChanged(t *testing.T) {
	p := &fakeProvider{sources: []source.PackageSource{src("A", "a"), src("B", "b")}}
	sel, _, c := newSelector(p)
	sel.Init("A")

	b := sel.Sources()[1]
	sel.SelectionChanged(&b)
	if c.searches != 1 {
		t.Errorf("searches = %d, want 1", c.searches)
	}

	sel.SelectionChanged(nil)
	if got := sel.Active(); got != &sel.Sources()[1] {
		t.Errorf("Active() = %v after clearing the picker, want the listed B", got)
	}
	if c.searches != 1 || c.saves != 1 {
		t.Errorf("clearing the picker: searches = %d, saves = %d; want 1 each", c.searches, c.saves)
	}
}

func TestSelectionChanged_NilWithoutPicker(t *testing.T) {
	p := &fakeProvider{sources: []source.PackageSource{src("A", "a"), src("B", "b")}}
	sel := New(p, nil, Hooks{})

	sel.SourcesChanged()
	sel.SelectionChanged(nil)
	if got := sel.Active(); got != &sel.Sources()[0] {
		t.Errorf("Active() = %v, want the listed A", got)
	}
}

func TestSelectExplicit_UnlistedSourceIsIgnored(t *testing.T) {
	p := &fakeProvider{sources: []source.PackageSource{src("A", "a"), src("B", "b")}}
	sel, _, c := newSelector(p)
	sel.Init("A")
	savedBefore := len(p.saved)

	sel.SelectExplicit(src("Ghost", "g"))

	if got := sel.Active(); got != &sel.Sources()[0] {
		t.Errorf("Active() = %v, want the listed A", got)
	}
	if p.activeName == "Ghost" || len(p.saved) != savedBefore {
		t.Errorf("provider active = %q, saved = %v; unlisted source persisted", p.activeName, p.saved)
	}
	if c.searches != 0 || c.saves != 0 {
		t.Errorf("searches = %d, saves = %d; want none", c.searches, c.saves)
	}
}

type panicProvider struct{ fakeProvider }

func (p *panicProvider) EnabledSources() []source.PackageSource { panic("provider failed") }

func TestSourcesChanged_ReleasesGuardOnPanic(t *testing.T) {
	p := &panicProvider{}
	sel := New(p, nil, Hooks{})
	func() {
		defer func() { _ = recover() }()
		sel.SourcesChanged()
	}()
	if sel.Rebuilding() {
		t.Error("guard still held after a panic")
	}
}
