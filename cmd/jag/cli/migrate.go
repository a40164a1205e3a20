// Package cli holds operator commands bundled into the jag binary.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jag-erp/jag-erp/internal/platform/migrate"
)

// ErrUsage is returned for an unknown or missing subcommand.
var ErrUsage = errors.New("usage: jag migrate up|down|version")

// Schema is the subset of the migrator used by the CLI.
type Schema interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

// Opener connects a Schema for the given DSN.
type Opener func(dsn string, logger *slog.Logger) (Schema, error)

// DefaultOpener binds to the embedded migrations.
func DefaultOpener(dsn string, logger *slog.Logger) (Schema, error) {
	m, err := migrate.New(dsn, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Migrate runs "up", "down" or "version" against dsn.
func Migrate(args []string, dsn string, out io.Writer, logger *slog.Logger, open Opener) (err error) {
	if len(args) != 1 {
		return ErrUsage
	}
	action := args[0]
	if action != "up" && action != "down" && action != "version" {
		return ErrUsage
	}
	if open == nil {
		open = DefaultOpener
	}
	schema, err := open(dsn, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, schema.Close())
	}()

	switch action {
	case "up":
		return schema.Up()
	case "down":
		return schema.Down()
	default:
		version, dirty, err := schema.Version()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "version=%d dirty=%t\n", version, dirty)
		return err
	}
}
