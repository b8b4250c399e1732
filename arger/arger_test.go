package arger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func register(t *testing.T) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	RegisterFlag(Flag[string]{
		Name:        "project",
		Aliases:     []string{"-p", "--project"},
		Positional:  true,
		DefaultFunc: func() string { return "." },
		Description: "Project directory",
	})
	RegisterFlag(Flag[string]{
		Name:           "verbosity",
		Aliases:        []string{"-v", "--verbosity"},
		Default:        Optional("warn"),
		ExpectedValues: []string{"none", "error", "warn", "info", "debug", "trace"},
		Parser:         func(s string) (string, error) { return s, nil },
	})
	nc := SwitchFlag("no-color")
	nc.Aliases = []string{"-nc", "--no-color"}
	RegisterFlag(nc)
	RegisterFlag(Flag[int]{
		Name:    "depth",
		Aliases: []string{"--depth"},
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		project   string
		verbosity string
		noColor   bool
		depth     int
	}{
		{"defaults", nil, ".", "warn", false, 0},
		{"aliases and switch", []string{"-p", "src", "-nc", "--verbosity", "debug"}, "src", "debug", true, 0},
		{"equals form", []string{"--verbosity=info", "--no-color=false", "--depth=3"}, ".", "info", false, 3},
		{"positional", []string{"app", "-v", "trace"}, "app", "trace", false, 0},
		{"expected values ignore case", []string{"-v", "DEBUG"}, ".", "DEBUG", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			register(t)
			flags, err := Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := Get[string](flags, "project"); got != tt.project {
				t.Errorf("project = %q, want %q", got, tt.project)
			}
			if got := Get[string](flags, "verbosity"); got != tt.verbosity {
				t.Errorf("verbosity = %q, want %q", got, tt.verbosity)
			}
			if got := Get[bool](flags, "no-color"); got != tt.noColor {
				t.Errorf("no-color = %v, want %v", got, tt.noColor)
			}
			if got := Get[int](flags, "depth"); got != tt.depth {
				t.Errorf("depth = %d, want %d", got, tt.depth)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--nope"}, "unknown flag"},
		{"missing value", []string{"-v"}, "expects a value"},
		{"unexpected value", []string{"-v", "loud"}, "invalid value"},
		{"extra positional", []string{"a", "b"}, "unexpected positional"},
		{"bad int", []string{"--depth", "x"}, "could not parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			register(t)
			_, err := Parse(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParse_Help(t *testing.T) {
	register(t)
	if _, err := Parse([]string{"-v", "info", "--help"}); !errors.Is(err, ErrHelp) {
		t.Errorf("err = %v, want ErrHelp", err)
	}
}

func TestParse_Required(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	RegisterFlag(Flag[string]{Name: "catalog", Aliases: []string{"--catalog"}, Required: true})
	if _, err := Parse(nil); err == nil || !strings.Contains(err.Error(), "required") {
		t.Errorf("err = %v, want required flag error", err)
	}
}

func TestRegisterFlag_Panics(t *testing.T) {
	tests := []struct {
		name string
		flag IFlag
	}{
		{"no name", Flag[string]{Aliases: []string{"-x"}}},
		{"no alias", Flag[string]{Name: "x"}},
		{"reserved alias", Flag[string]{Name: "x", Aliases: []string{"-h"}}},
		{"bad alias", Flag[string]{Name: "x", Aliases: []string{"x"}}},
		{"duplicate alias", Flag[string]{Name: "x", Aliases: []string{"-p"}}},
		{"required with default", Flag[string]{Name: "x", Aliases: []string{"-x"}, Required: true, Default: Optional("a")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			register(t)
			defer func() {
				if recover() == nil {
					t.Error("RegisterFlag did not panic")
				}
			}()
			RegisterFlag(tt.flag)
		})
	}
}

func TestPrintUsage(t *testing.T) {
	register(t)
	var buf bytes.Buffer
	PrintUsage(&buf)
	out := buf.String()
	for _, want := range []string{"Usage:", "project", "-p, --project (positional)", "Project directory", "[debug, error, info, none, trace, warn]"} {
		if !strings.Contains(out, want) {
			t.Errorf("usage missing %q:\n%s", want, out)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if len(got) != len(want) {
		t.Fatalf("wrapText() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}
