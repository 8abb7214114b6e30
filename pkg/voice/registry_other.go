//go:build !windows

package voice

import (
	"context"
	"fmt"
)

// unsupportedReader reports every voice as unvalidated on platforms without
// a Windows registry. Resolution failures are never fatal — the spec's
// RegistryError contract logs at debug level and simply excludes the voice
// from AvailableVoices(), so a !windows build's voices are still settable
// by id, just never listed.
type unsupportedReader struct{}

// NewReader returns the platform Reader: on non-Windows builds, a stub that
// reports every lookup as a resolution failure.
func NewReader() Reader {
	return unsupportedReader{}
}

// Valid implements Reader.
func (unsupportedReader) Valid(ctx context.Context, id string) (bool, error) {
	return false, fmt.Errorf("voice registry validation unavailable on this platform for %q", id)
}
