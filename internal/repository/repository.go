// Package repository provides factory for repositories.
package repository

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/repository/file"
	"github.com/pbrinkmeier/hoff/internal/repository/postgres"
)

// Options carries the backend-specific settings for one project's store.
type Options struct {
	// Project is the "owner/repository" key the state is stored under.
	Project string
	// Path is the state file location, used by the file backend.
	Path string
	// DB is the shared database handle, used by the postgres backend.
	DB *postgres.DB
}

// New constructs a state store backend by name.
func New(name string, opts Options, log *zap.SugaredLogger) (StateStore, error) {
	switch name {
	case "file":
		return file.New(opts.Path, log), nil
	case "postgres":
		if opts.DB == nil {
			return nil, errors.New("postgres state store needs a started database handle")
		}
		return opts.DB.Store(opts.Project), nil
	default:
		return nil, fmt.Errorf("unknown state store backend: %s", name)
	}
}
