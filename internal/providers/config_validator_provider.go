package providers

import (
	"approachlog/internal/structures"
	"errors"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return v.Errors
	}

	if c.conf.Backup.Enabled && c.conf.Backup.Dir == "" {
		return errors.New("backup.dir is required when backup is enabled")
	}
	store := c.conf.Backup.ObjectStore
	if store.Enabled && (store.Endpoint == "" || store.Bucket == "") {
		return errors.New("backup.objectStore requires endpoint and bucket")
	}
	if c.conf.Backup.Interval < 0 {
		return errors.New("backup.interval must not be negative")
	}
	if c.conf.Photos.MaxPerPerson < 0 {
		return errors.New("photos.maxPerPerson must not be negative")
	}
	return nil
}
