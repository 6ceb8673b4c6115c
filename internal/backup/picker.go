package backup

import (
	"context"
	"errors"
)

var (
	// ErrCancelled is returned by a picker when no destination or source was chosen.
	ErrCancelled = errors.New("backup target selection cancelled")
	// ErrUnsupported means the environment offers no way to pick a target.
	ErrUnsupported = errors.New("backup target selection unsupported")
	// ErrNoBackup is returned by Open when there is nothing to restore from.
	ErrNoBackup = errors.New("no backup found")
)

// Picker chooses where a snapshot goes and where one is read back from.
type Picker interface {
	Name() string
	// Save writes data to a target derived from suggestedName and returns
	// the location actually written.
	Save(ctx context.Context, suggestedName string, data []byte) (string, error)
	// Open returns the location read and its raw contents.
	Open(ctx context.Context) (string, []byte, error)
}

// UnsupportedPicker reports ErrUnsupported for every request.
type UnsupportedPicker struct{}

func (UnsupportedPicker) Name() string { return "unsupported" }

func (UnsupportedPicker) Save(_ context.Context, _ string, _ []byte) (string, error) {
	return "", ErrUnsupported
}

func (UnsupportedPicker) Open(_ context.Context) (string, []byte, error) {
	return "", nil, ErrUnsupported
}
