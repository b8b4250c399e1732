// Package arger is a small flag parser: typed flags with aliases, defaults,
// expected values and one optional positional slot.
package arger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	xterm "golang.org/x/term"
)

// ErrHelp is returned by Parse when -h or --help was given.
var ErrHelp = errors.New("help requested")

var (
	registeredFlags = make(map[string]IFlag)
	registerOrder   []string
	aliasToFlag     = make(map[string]IFlag)
)

// -------------------------------
// IFlag - interface for all flag types
// --------------------------------

type IFlag interface {
	GetName() string
	GetDescription() string
	GetRequired() bool
	GetAliases() []string
	GetPositional() bool
	GetDefault() any
	GetExpectedValues() []any
	isSwitch() bool
	parse(value string) (IParsedFlag, error)
	defaultParsed() IParsedFlag
}

type IParsedFlag interface {
	GetValue() any
	GetFlag() IFlag
}

// -------------------------------
// Flag - generic flag type
// --------------------------------

type Flag[T any] struct {
	Name           string
	Description    string
	Required       bool
	Default        *T
	DefaultFunc    func() T
	Aliases        []string
	Positional     bool
	ExpectedValues []T
	Parser         func(string) (T, error)
	// Switch flags take no value; their presence sets true.
	Switch bool
}

func (f Flag[T]) GetName() string        { return f.Name }
func (f Flag[T]) GetDescription() string { return f.Description }
func (f Flag[T]) GetRequired() bool      { return f.Required }
func (f Flag[T]) GetAliases() []string   { return f.Aliases }
func (f Flag[T]) GetPositional() bool    { return f.Positional }
func (f Flag[T]) isSwitch() bool         { return f.Switch }

func (f Flag[T]) GetDefault() any {
	if f.Default != nil {
		return *f.Default
	}
	if f.DefaultFunc != nil {
		return f.DefaultFunc()
	}
	return nil
}

func (f Flag[T]) GetExpectedValues() []any {
	out := make([]any, len(f.ExpectedValues))
	for i, v := range f.ExpectedValues {
		out[i] = v
	}
	return out
}

func (f Flag[T]) parse(value string) (IParsedFlag, error) {
	var v T
	if f.Parser == nil {
		if _, err := fmt.Sscan(value, &v); err != nil {
			return nil, fmt.Errorf("could not parse value %q", value)
		}
	} else {
		var err error
		if v, err = f.Parser(value); err != nil {
			return nil, fmt.Errorf("could not parse value %q: %w", value, err)
		}
	}

	if len(f.ExpectedValues) > 0 {
		valid := false
		for _, ev := range f.ExpectedValues {
			if strings.EqualFold(fmt.Sprintf("%v", ev), fmt.Sprintf("%v", v)) {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("invalid value %q", value)
		}
	}

	return ParsedFlag[T]{flag: &f, Value: v}, nil
}

func (f Flag[T]) defaultParsed() IParsedFlag {
	if f.Default != nil {
		return ParsedFlag[T]{flag: &f, Value: *f.Default}
	}
	if f.DefaultFunc != nil {
		return ParsedFlag[T]{flag: &f, Value: f.DefaultFunc()}
	}
	return nil
}

type ParsedFlag[T any] struct {
	flag  *Flag[T]
	Value T
}

func (pf ParsedFlag[T]) GetValue() any  { return pf.Value }
func (pf ParsedFlag[T]) GetFlag() IFlag { return pf.flag }
func (pf ParsedFlag[T]) As() T          { return pf.Value }

// -------------------------------
// Register & Parse
// --------------------------------

// RegisterFlag adds f to the global set. Misconfigured flags are programmer
// errors and panic.
func RegisterFlag(f IFlag) {
	if err := validateFlag(f); err != nil {
		panic(err)
	}
	registeredFlags[f.GetName()] = f
	registerOrder = append(registerOrder, f.GetName())
	for _, alias := range f.GetAliases() {
		aliasToFlag[alias] = f
	}
}

func validateFlag(f IFlag) error {
	if f.GetName() == "" {
		return errors.New("arger: flag name cannot be empty")
	}
	if _, exists := registeredFlags[f.GetName()]; exists {
		return fmt.Errorf("arger: flag %s is already registered", f.GetName())
	}
	if f.GetRequired() && f.GetDefault() != nil {
		return fmt.Errorf("arger: flag --%s cannot be required and have a default value", f.GetName())
	}
	if len(f.GetAliases()) == 0 && !f.GetPositional() {
		return fmt.Errorf("arger: flag --%s must have at least one alias", f.GetName())
	}
	for _, alias := range f.GetAliases() {
		switch {
		case aliasToFlag[alias] != nil:
			return fmt.Errorf("arger: alias %s is already registered for another flag", alias)
		case alias == "--help" || alias == "-h":
			return fmt.Errorf("arger: alias %s is reserved for help", alias)
		case !strings.HasPrefix(alias, "-"):
			return fmt.Errorf("arger: alias %s must start with - or --", alias)
		}
	}
	return nil
}

// Reset forgets every registered flag.
func Reset() {
	registeredFlags = make(map[string]IFlag)
	registerOrder = nil
	aliasToFlag = make(map[string]IFlag)
}

// Parse reads args (without the program name) against the registered flags,
// applying defaults and checking required flags.
func Parse(args []string) (map[string]IParsedFlag, error) {
	var (
		parsedFlags      = make(map[string]IParsedFlag)
		positionalValues []string
		lastFlag         IFlag
	)

	for _, arg := range args {
		switch {
		case arg == "--help" || arg == "-h":
			return nil, ErrHelp
		case lastFlag != nil:
			pf, err := lastFlag.parse(arg)
			if err != nil {
				return nil, flagError(lastFlag, err)
			}
			parsedFlags[lastFlag.GetName()] = pf
			lastFlag = nil
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			name, value, hasValue := strings.Cut(arg, "=")
			mapped, exists := aliasToFlag[name]
			if !exists {
				return nil, fmt.Errorf("unknown flag: %s", name)
			}
			if mapped.isSwitch() && !hasValue {
				value, hasValue = "true", true
			}
			if !hasValue {
				lastFlag = mapped
				continue
			}
			pf, err := mapped.parse(value)
			if err != nil {
				return nil, flagError(mapped, err)
			}
			parsedFlags[mapped.GetName()] = pf
		default:
			positionalValues = append(positionalValues, arg)
		}
	}

	if lastFlag != nil {
		return nil, flagError(lastFlag, errors.New("expects a value but none was provided"))
	}

	for _, value := range positionalValues {
		found := false
		for _, name := range registerOrder {
			flag := registeredFlags[name]
			if _, exists := parsedFlags[name]; !exists && flag.GetPositional() {
				pf, err := flag.parse(value)
				if err != nil {
					return nil, flagError(flag, err)
				}
				parsedFlags[name] = pf
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unexpected positional argument: %s", value)
		}
	}

	for _, name := range registerOrder {
		flag := registeredFlags[name]
		if _, exists := parsedFlags[name]; !exists {
			if def := flag.defaultParsed(); def != nil {
				parsedFlags[name] = def
			}
		}
	}

	for _, name := range registerOrder {
		if registeredFlags[name].GetRequired() {
			if _, exists := parsedFlags[name]; !exists {
				return nil, flagError(registeredFlags[name], errors.New("required flag not set"))
			}
		}
	}

	return parsedFlags, nil
}

// -------------------------------
// Usage / Help
// --------------------------------

// PrintUsage writes the flag table, wrapped to the terminal width when w is
// a terminal and to 80 columns otherwise.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")

	termWidth := 80
	if f, ok := w.(*os.File); ok {
		if tw, _, err := xterm.GetSize(int(f.Fd())); err == nil {
			termWidth = tw
		}
	}

	indent := 4
	leftColWidth := 10
	for _, name := range registerOrder {
		leftColWidth = max(leftColWidth, len(name))
	}
	leftColWidth += 2

	descWidth := max(termWidth-indent-leftColWidth-1, 20)
	pad := strings.Repeat(" ", indent+leftColWidth)

	for _, name := range registerOrder {
		f := registeredFlags[name]
		aliases := strings.Join(f.GetAliases(), ", ")
		if f.GetPositional() {
			aliases = strings.TrimSpace(aliases + " (positional)")
		}
		fmt.Fprintf(w, "%s%-*s %s\n", strings.Repeat(" ", indent), leftColWidth, f.GetName(), aliases)
		for _, ln := range wrapText(f.GetDescription(), descWidth) {
			fmt.Fprintf(w, "%s%s\n", pad, ln)
		}
		if expected := f.GetExpectedValues(); len(expected) > 0 {
			values := make([]string, len(expected))
			for i, v := range expected {
				values[i] = fmt.Sprintf("%v", v)
				if values[i] == "" {
					values[i] = "<empty>"
				}
			}
			sort.Strings(values)
			fmt.Fprintf(w, "%s[%s]\n", pad, strings.Join(values, ", "))
		}
		fmt.Fprintln(w)
	}
}

func wrapText(s string, maxWidth int) []string {
	if s == "" || maxWidth <= 0 {
		return nil
	}
	var out []string
	words := strings.Fields(s)
	var line strings.Builder
	for i, w := range words {
		extra := 0
		if line.Len() > 0 {
			extra = 1
		}
		if line.Len()+len(w)+extra > maxWidth && line.Len() > 0 {
			out = append(out, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
		if i == len(words)-1 {
			out = append(out, line.String())
		}
	}
	return out
}

// -------------------------------
// Helper functions
// --------------------------------

func Optional[T any](v T) *T { return &v }

func flagError(f IFlag, err error) error {
	return fmt.Errorf("flag %s (%s): %w", f.GetName(), strings.Join(f.GetAliases(), ", "), err)
}

// Get returns the parsed value of name, or T's zero value when the flag was
// neither given nor defaulted.
func Get[T any](flags map[string]IParsedFlag, name string) T {
	var zero T
	pf, exists := flags[name]
	if !exists {
		return zero
	}
	typed, ok := pf.(ParsedFlag[T])
	if !ok {
		return zero
	}
	return typed.Value
}

func StringFlag(name string) Flag[string] {
	return Flag[string]{
		Name:   name,
		Parser: func(s string) (string, error) { return s, nil },
	}
}

func BoolFlag(name string) Flag[bool] {
	return Flag[bool]{
		Name: name,
		Parser: func(s string) (bool, error) {
			switch strings.ToLower(s) {
			case "true", "1", "yes":
				return true, nil
			case "false", "0", "no":
				return false, nil
			default:
				return false, fmt.Errorf("invalid bool value: %s", s)
			}
		},
	}
}

func SwitchFlag(name string) Flag[bool] {
	f := BoolFlag(name)
	f.Switch = true
	f.Default = Optional(false)
	return f
}
