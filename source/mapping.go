package source

import "strings"

type packageSourceMappingXML struct {
	Sources []mappedSourceXML `xml:"packageSource"`
	Clear   []struct{}        `xml:"clear"`
}

type mappedSourceXML struct {
	Key      string             `xml:"key,attr"`
	Patterns []mappedPatternXML `xml:"package"`
}

type mappedPatternXML struct {
	Pattern string `xml:"pattern,attr"`
}

// Mapping holds accumulated <packageSourceMapping> rules. Entries maps a
// source key (case-preserved) to the lowercase patterns it serves.
type Mapping struct {
	Entries map[string][]string
}

// IsConfigured is false when no rules exist, which means every source may
// serve every package.
func (m *Mapping) IsConfigured() bool {
	return m != nil && len(m.Entries) > 0
}

// SourcesForPackage returns the source keys allowed to serve packageID, or
// nil when the mapping is not configured.
func (m *Mapping) SourcesForPackage(packageID string) []string {
	if !m.IsConfigured() {
		return nil
	}
	var matched []string
	for sourceKey, patterns := range m.Entries {
		for _, p := range patterns {
			if matchPattern(packageID, p) {
				matched = append(matched, sourceKey)
				break
			}
		}
	}
	return matched
}

// Allows reports whether sourceName may serve packageID. A package that
// matches no pattern at all is allowed everywhere.
func (m *Mapping) Allows(sourceName, packageID string) bool {
	allowed := m.SourcesForPackage(packageID)
	if len(allowed) == 0 {
		return true
	}
	for _, k := range allowed {
		if SameName(k, sourceName) {
			return true
		}
	}
	return false
}

func (m *Mapping) merge(x packageSourceMappingXML) {
	if m.Entries == nil {
		m.Entries = make(map[string][]string)
	}
	for _, src := range x.Sources {
		for _, p := range src.Patterns {
			pat := strings.ToLower(strings.TrimSpace(p.Pattern))
			if pat != "" {
				m.Entries[src.Key] = append(m.Entries[src.Key], pat)
			}
		}
	}
}

// matchPattern rules (all case-insensitive):
//   - "*"          matches every package ID
//   - "Prefix.*"   matches IDs starting with "prefix."
//   - "Exact.Name" exact match
func matchPattern(packageID, pattern string) bool {
	id := strings.ToLower(packageID)
	pat := strings.ToLower(pattern)

	if pat == "*" {
		return true
	}
	if strings.HasSuffix(pat, ".*") {
		return strings.HasPrefix(id, pat[:len(pat)-1])
	}
	return pat != "" && id == pat
}
