package storagesvc

import (
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
)

// New returns the FileStorage selected by conf.Storage.Driver.
func New(conf *core.Config) (core.FileStorage, error) {
	switch conf.Storage.Driver {
	case "", "disk":
		return NewDiskStorage(conf)
	case "oss":
		return NewOSSStorage(conf)
	default:
		return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
