//go:build windows

package voice

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// WindowsReader resolves a voice id, interpreted as a registry key path, by
// reading its langDataPath and voicePath values and checking that the
// corresponding files exist after environment-variable expansion.
type WindowsReader struct{}

// NewReader returns the platform Reader: a real Windows registry lookup.
func NewReader() Reader {
	return WindowsReader{}
}

// Valid implements Reader.
func (WindowsReader) Valid(ctx context.Context, id string) (bool, error) {
	hive, subkey, err := splitRegistryPath(id)
	if err != nil {
		return false, fmt.Errorf("voice registry path %q: %w", id, err)
	}

	key, err := registry.OpenKey(hive, subkey, registry.QUERY_VALUE)
	if err != nil {
		return false, fmt.Errorf("opening registry key %q: %w", id, err)
	}
	defer key.Close()

	langDataPath, _, err := key.GetStringValue("langDataPath")
	if err != nil {
		return false, fmt.Errorf("reading langDataPath for %q: %w", id, err)
	}
	voicePath, _, err := key.GetStringValue("voicePath")
	if err != nil {
		return false, fmt.Errorf("reading voicePath for %q: %w", id, err)
	}

	langDataPath = os.ExpandEnv(langDataPath)
	voicePath = os.ExpandEnv(voicePath)

	if !fileExists(langDataPath) {
		return false, nil
	}
	if !fileExists(voicePath + ".apm") {
		return false, nil
	}
	return true, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

var hives = map[string]registry.Key{
	"HKEY_LOCAL_MACHINE": registry.LOCAL_MACHINE,
	"HKLM":                registry.LOCAL_MACHINE,
	"HKEY_CURRENT_USER":  registry.CURRENT_USER,
	"HKCU":                registry.CURRENT_USER,
	"HKEY_CLASSES_ROOT":  registry.CLASSES_ROOT,
	"HKCR":                registry.CLASSES_ROOT,
}

// splitRegistryPath splits a "HIVE\subkey\..." path into its root registry
// hive and the remaining subkey path.
func splitRegistryPath(path string) (registry.Key, string, error) {
	parts := strings.SplitN(path, `\`, 2)
	hive, ok := hives[strings.ToUpper(parts[0])]
	if !ok {
		return 0, "", fmt.Errorf("unrecognized registry hive %q", parts[0])
	}
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("missing subkey in path %q", path)
	}
	return hive, parts[1], nil
}
