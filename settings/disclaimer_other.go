//go:build !windows

package settings

import "path/filepath"

// NewDisclaimerFlag returns the platform flag for the disclaimer. Outside
// Windows it lives next to the settings file.
func NewDisclaimerFlag(configDir string) Flag {
	return FileFlag{Path: filepath.Join(configDir, "suppress-ui-disclaimer")}
}
