//go:build windows

package settings

import (
	"errors"

	"golang.org/x/sys/windows/registry"
)

const (
	nugetRegistryKey            = `Software\NuGet`
	suppressDisclaimerValueName = "SuppressUILegalDisclaimer"
)

// NewDisclaimerFlag uses the same HKCU value the Visual Studio extension
// reads, so dismissing the disclaimer in either place sticks in both.
func NewDisclaimerFlag(string) Flag {
	return RegistryFlag{Path: nugetRegistryKey, Name: suppressDisclaimerValueName}
}

// RegistryFlag is a string value under HKEY_CURRENT_USER.
type RegistryFlag struct {
	Path string
	Name string
}

func (f RegistryFlag) Get() (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, f.Path, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer k.Close()

	v, _, err := k.GetStringValue(f.Name)
	if errors.Is(err, registry.ErrNotExist) {
		return "", nil
	}
	return v, err
}

func (f RegistryFlag) Set(value string) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, f.Path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.SetStringValue(f.Name, value)
}
