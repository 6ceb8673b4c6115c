package storage

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrRejected      = errors.New("write rejected")
)

// StorageFault reports that the medium was unavailable or refused an
// operation. Nothing from a failed write is visible afterwards.
type StorageFault struct {
	Op  string
	Err error
}

func (f *StorageFault) Error() string {
	return fmt.Sprintf("record store %s: %v", f.Op, f.Err)
}

func (f *StorageFault) Unwrap() error {
	return f.Err
}

func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StorageFault
	if errors.As(err, &existing) {
		return err
	}
	return &StorageFault{Op: op, Err: err}
}

// IsStorageFault reports whether err carries a *StorageFault.
func IsStorageFault(err error) bool {
	var f *StorageFault
	return errors.As(err, &f)
}
