// Package semver parses and orders NuGet package versions.
//
// NuGet versions are SemVer 2.0.0 with an optional fourth "revision" segment.
// Prerelease labels compare case-insensitively and build metadata never
// affects precedence.
package semver

import (
	"encoding/xml"
	"strconv"
	"strings"
)

type Version struct {
	Major      int
	Minor      int
	Patch      int
	Revision   int    // 4th segment, e.g. 1.2.3.4
	PreRelease string // e.g. "beta.1", "rc.2"
	Build      string // after '+', ignored for precedence
	Raw        string
}

// Parse is lenient: missing or non-numeric segments become zero, matching how
// restore treats loose versions in project files.
func Parse(s string) Version {
	s = strings.TrimSpace(s)
	raw := s
	build := ""
	pre := ""

	if idx := strings.IndexByte(s, '+'); idx != -1 {
		build = s[idx+1:]
		s = s[:idx]
	}
	if idx := strings.IndexByte(s, '-'); idx != -1 {
		pre = s[idx+1:]
		s = s[:idx]
	}

	parts := strings.Split(s, ".")
	intAt := func(i int) int {
		if i >= len(parts) {
			return 0
		}
		n, _ := strconv.Atoi(parts[i])
		return n
	}
	return Version{
		Major:      intAt(0),
		Minor:      intAt(1),
		Patch:      intAt(2),
		Revision:   intAt(3),
		PreRelease: pre,
		Build:      build,
		Raw:        raw,
	}
}

// ParseAll parses every string in order.
func ParseAll(ss ...string) []Version {
	out := make([]Version, 0, len(ss))
	for _, s := range ss {
		out = append(out, Parse(s))
	}
	return out
}

// Compare returns -1, 0 or 1 when v is older than, equal to, or newer than other.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	if c := compareInt(v.Revision, other.Revision); c != 0 {
		return c
	}
	// stable sorts after any prerelease of the same numbers
	switch {
	case v.PreRelease == "" && other.PreRelease != "":
		return 1
	case v.PreRelease != "" && other.PreRelease == "":
		return -1
	}
	return comparePreRelease(v.PreRelease, other.PreRelease)
}

func (v Version) Less(other Version) bool        { return v.Compare(other) < 0 }
func (v Version) IsNewerThan(other Version) bool { return v.Compare(other) > 0 }
func (v Version) Equal(other Version) bool       { return v.Compare(other) == 0 }
func (v Version) IsPreRelease() bool             { return v.PreRelease != "" }

// String is the version as written, without build metadata. Versions built
// by hand without Raw are formatted from their fields.
func (v Version) String() string {
	if v.Raw == "" {
		s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
		if v.Revision != 0 {
			s += "." + strconv.Itoa(v.Revision)
		}
		if v.PreRelease != "" {
			s += "-" + v.PreRelease
		}
		return s
	}
	if v.Build != "" {
		return strings.TrimSuffix(v.Raw, "+"+v.Build)
	}
	return v.Raw
}

func (v *Version) UnmarshalXMLAttr(attr xml.Attr) error {
	*v = Parse(attr.Value)
	return nil
}

func (v Version) MarshalText() ([]byte, error) { return []byte(v.Raw), nil }

func (v *Version) UnmarshalText(b []byte) error {
	*v = Parse(string(b))
	return nil
}

// Max returns the highest version in vs and false when vs is empty.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if v.IsNewerThan(best) {
			best = v
		}
	}
	return best, true
}

// LatestStable returns the highest version without a prerelease label.
func LatestStable(vs []Version) (Version, bool) {
	var found bool
	var best Version
	for _, v := range vs {
		if v.IsPreRelease() {
			continue
		}
		if !found || v.IsNewerThan(best) {
			best = v
			found = true
		}
	}
	return best, found
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// comparePreRelease follows SemVer 2.0.0 §11: dot-separated identifiers
// left-to-right, numeric ones as integers, numeric < alphanumeric,
// fewer fields < more. Alphanumeric identifiers ignore case as NuGet does.
func comparePreRelease(a, b string) int {
	if strings.EqualFold(a, b) {
		return 0
	}
	ap := strings.Split(a, ".")
	bp := strings.Split(b, ".")
	n := min(len(ap), len(bp))
	for i := 0; i < n; i++ {
		ai, aErr := strconv.Atoi(ap[i])
		bi, bErr := strconv.Atoi(bp[i])
		switch {
		case aErr == nil && bErr == nil:
			if c := compareInt(ai, bi); c != 0 {
				return c
			}
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		default:
			if c := strings.Compare(strings.ToLower(ap[i]), strings.ToLower(bp[i])); c != 0 {
				return c
			}
		}
	}
	return compareInt(len(ap), len(bp))
}
