package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	schemafs "github.com/rafaelfelix66/supernosso-coins/pkg/database/sql"
	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
)

// ApplySchema executes the embedded schema files in lexical order. The files
// are written to be idempotent (CREATE ... IF NOT EXISTS), so this is safe to
// run on every startup.
func ApplySchema(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	entries, err := schemafs.Content.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		contents, err := schemafs.Content.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("failed to read schema file %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(contents)); err != nil {
			return fmt.Errorf("failed to apply schema file %s: %w", name, err)
		}
		logger.WithField("file", name).Debug("Applied schema file")
	}

	return nil
}
