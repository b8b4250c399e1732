package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nulifyer/gugetctl/catalog"
	"github.com/nulifyer/gugetctl/control"
	"github.com/nulifyer/gugetctl/dispatch"
	"github.com/nulifyer/gugetctl/search"
	"github.com/nulifyer/gugetctl/semver"
	"github.com/nulifyer/gugetctl/source"
	"github.com/nulifyer/gugetctl/status"
)

type staticProvider struct {
	sources []source.PackageSource
	saved   string
}

func (p *staticProvider) EnabledSources() []source.PackageSource { return p.sources }

func (p *staticProvider) ActivePackageSourceName() string { return p.saved }

func (p *staticProvider) SaveActivePackageSource(src source.PackageSource) { p.saved = src.Name }

func (p *staticProvider) OnSourcesChanged(func()) func() { return func() {} }

const testCatalog = `
[[package]]
id = "Newtonsoft.Json"
versions = ["12.0.3", "13.0.3"]

[[package]]
id = "Serilog"
versions = ["3.1.1"]
`

// newTestBoard wires a board to a real session and catalog searcher; search
// results arrive on the returned channel.
func newTestBoard(t *testing.T) (*board, <-chan catalog.Result) {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	results := make(chan catalog.Result, 4)
	b := &board{markdown: &markdownRenderer{style: "notty"}}
	b.searcher = &catalog.Searcher{Catalog: cat, Deliver: func(r catalog.Result) { results <- r }}
	b.dispatcher = dispatch.NewLoop(4)
	b.session = control.New(control.Config{
		Provider: &staticProvider{sources: []source.PackageSource{
			{Name: "nuget.org", Location: "https://api.nuget.org/v3/index.json", Enabled: true},
			{Name: "local", Location: "/feeds/local", Enabled: true},
		}},
		Searcher:   b,
		Dispatcher: b.dispatcher,
		SourceView: b,
	})
	return b, results
}

func waitResult(t *testing.T, results <-chan catalog.Result) catalog.Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no search result delivered")
	}
	return catalog.Result{}
}

func TestBoard_InitialSearch(t *testing.T) {
	b, results := newTestBoard(t)

	if !b.loading {
		t.Error("loading should be set while the first search runs")
	}
	if len(b.sources) != 2 || b.sourceCursor != 0 {
		t.Errorf("sources = %v, cursor = %d", b.sources, b.sourceCursor)
	}
	r := waitResult(t, results)
	if r.Err != nil {
		t.Fatalf("search error: %v", r.Err)
	}
	if len(r.Packages) != 2 {
		t.Errorf("got %d packages, want 2", len(r.Packages))
	}
	if !b.searcher.Latest(r.Seq) {
		t.Error("first result should be the latest")
	}
}

func TestBoard_ReloadSearchesAgain(t *testing.T) {
	b, results := newTestBoard(t)
	first := waitResult(t, results)

	if err := b.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	second := waitResult(t, results)
	if second.Seq <= first.Seq {
		t.Errorf("reload seq %d not after %d", second.Seq, first.Seq)
	}
	if b.searcher.Latest(first.Seq) {
		t.Error("first result should be stale after reload")
	}
}

func TestBoard_ImpliesStatusFollowsFilter(t *testing.T) {
	b, results := newTestBoard(t)
	waitResult(t, results)

	if b.ImpliesStatus() {
		t.Error("All filter should not imply status")
	}
	b.session.SetFilter(search.FilterInstalled)
	waitResult(t, results)
	if !b.ImpliesStatus() {
		t.Error("Installed filter should imply status")
	}
}

func TestBoard_Items(t *testing.T) {
	b := &board{packages: []*search.Package{{ID: "A"}, {ID: "B"}}}
	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if p, ok := items[1].(*search.Package); !ok || p.ID != "B" {
		t.Errorf("items[1] = %#v", items[1])
	}
}

func TestBoard_SourceListView(t *testing.T) {
	b := &board{}
	b.SetItems([]source.PackageSource{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	b.SetSelected(2)
	if b.sourceCursor != 2 {
		t.Errorf("cursor = %d, want 2", b.sourceCursor)
	}
	b.SetSelected(7)
	if b.sourceCursor != 2 {
		t.Errorf("out of range selection moved cursor to %d", b.sourceCursor)
	}
	b.SetItems([]source.PackageSource{{Name: "a"}})
	if b.sourceCursor != 0 {
		t.Errorf("cursor = %d after shrink, want 0", b.sourceCursor)
	}
}

func TestModel_DropsStaleResults(t *testing.T) {
	b, results := newTestBoard(t)
	first := waitResult(t, results)
	b.session.Refresh()
	second := waitResult(t, results)

	m := NewModel(context.Background(), b, nil)
	next, _ := m.Update(searchResultsMsg{result: first})
	m = next.(Model)
	if !b.loading {
		t.Error("stale result should leave the list loading")
	}

	next, _ = m.Update(searchResultsMsg{result: second})
	m = next.(Model)
	if b.loading {
		t.Error("latest result should finish loading")
	}
	if len(b.packages) != len(second.Packages) {
		t.Errorf("got %d packages, want %d", len(b.packages), len(second.Packages))
	}
}

func TestModel_RunsTasksAsOwner(t *testing.T) {
	b, results := newTestBoard(t)
	waitResult(t, results)
	m := NewModel(context.Background(), b, nil)

	var owned bool
	m.Update(dispatch.TaskMsg{Task: func(ctx context.Context) {
		owned = dispatch.OnOwner(ctx, b.dispatcher)
	}})
	if !owned {
		t.Error("task should run with the owner context")
	}
}

func TestPackageMarkdown(t *testing.T) {
	pkg := &search.Package{
		ID:          "Serilog",
		Authors:     "Serilog Contributors",
		Description: "Structured logging",
		Versions:    semver.ParseAll("2.12.0", "3.1.1"),
		Status:      status.UpdateAvailable,
	}
	md := packageMarkdown(pkg, false)

	for _, want := range []string{"# Serilog", "*by Serilog Contributors*", "Structured logging", "**Status:** update available", "**Latest:** 3.1.1", "## Versions\n"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Index(md, "- 3.1.1") > strings.Index(md, "- 2.12.0") {
		t.Errorf("versions should be listed newest first:\n%s", md)
	}
	if !strings.Contains(packageMarkdown(pkg, true), "including prerelease") {
		t.Error("prerelease heading missing")
	}

	pkg.StatusErr = errors.New("no stable version")
	if !strings.Contains(packageMarkdown(pkg, false), "unknown (no stable version)") {
		t.Error("status error not shown")
	}
}

func TestStatusBadge(t *testing.T) {
	tests := []struct {
		name string
		pkg  *search.Package
		want string
	}{
		{"not installed", &search.Package{Status: status.NotInstalled}, "·"},
		{"installed", &search.Package{Status: status.Installed}, "✓"},
		{"update", &search.Package{Status: status.UpdateAvailable}, "⬆"},
		{"error", &search.Package{Status: status.Installed, StatusErr: errors.New("x")}, "!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusBadge(tt.pkg); !strings.Contains(got, tt.want) {
				t.Errorf("statusBadge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColorizeLogLine_KeepsText(t *testing.T) {
	for _, line := range []string{"[TRACE] a", "[DEBUG] b", "[INFO] c", "[WARN] d", "[ERROR] e", "plain"} {
		if got := colorizeLogLine(line); !strings.Contains(got, line) {
			t.Errorf("colorizeLogLine(%q) = %q", line, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Newtonsoft.Json", 20, "Newtonsoft.Json"},
		{"Newtonsoft.Json", 5, "Newt…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFitLines(t *testing.T) {
	if got := fitLines([]string{"a", "b", "c"}, 2); got != "a\nb" {
		t.Errorf("fitLines() = %q", got)
	}
	if got := fitLines([]string{"a"}, 3); got != "a" {
		t.Errorf("fitLines() = %q", got)
	}
}
