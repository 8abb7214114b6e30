package voice

import "context"

// Reader resolves a voice id to its registry-backed data-file paths. It is
// strictly a platform peripheral — isolated behind this trait so
// pkg/driver can depend on it without caring whether the real Windows
// registry or a cross-platform stub is behind it.
type Reader interface {
	// Valid reports whether id's langDataPath and voicePath+".apm" values
	// resolve to files that exist, after environment-variable expansion.
	// A non-nil error means resolution itself failed (RegistryError); the
	// caller treats that the same as invalid, just with richer logging.
	Valid(ctx context.Context, id string) (bool, error)
}

// FilterValid returns the subset of voices for which reader reports valid,
// preserving order. A voice whose validation errors is excluded and logged
// by the caller at debug level (see pkg/driver), matching the
// RegistryError contract: failures never propagate, they only narrow the
// user-visible list. Invalid voices remain settable by id; this filtering
// only affects what AvailableVoices() presents.
func FilterValid(ctx context.Context, voices List, reader Reader, onError func(id string, err error)) List {
	out := make(List, 0, len(voices))
	for _, v := range voices {
		ok, err := reader.Valid(ctx, v.ID)
		if err != nil {
			if onError != nil {
				onError(v.ID, err)
			}
			continue
		}
		if ok {
			out = append(out, v)
		}
	}
	return out
}
