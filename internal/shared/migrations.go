package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// The local schema is small: the single-row credentials table plus the
// bookkeeping table below. Steps are still versioned up/down pairs so the
// mirror can grow (track cache, offline queue) without reworking the runner.
//
//go:embed sql/*.sql
var schemaFiles embed.FS

// schemaStep is one versioned schema change with its reversal. Each half
// holds exactly one SQL statement.
type schemaStep struct {
	Version int
	Up      string
	Down    string
}

// loadSchema reads the embedded sql/ directory into steps ordered by
// version. File names follow <version>_<name>_up.sql and
// <version>_<name>_down.sql; a step missing either half, or a stray file,
// is an error.
func loadSchema() ([]schemaStep, error) {
	entries, err := schemaFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema directory: %w", err)
	}

	steps := make(map[int]*schemaStep)
	for _, entry := range entries {
		name := entry.Name()

		var up bool
		switch {
		case strings.HasSuffix(name, "_up.sql"):
			up = true
		case strings.HasSuffix(name, "_down.sql"):
			up = false
		default:
			return nil, fmt.Errorf("unexpected schema file %s", name)
		}

		version, err := strconv.Atoi(strings.SplitN(name, "_", 2)[0])
		if err != nil {
			return nil, fmt.Errorf("schema file %s has no numeric version prefix: %w", name, err)
		}

		content, err := schemaFiles.ReadFile("sql/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", name, err)
		}

		step := steps[version]
		if step == nil {
			step = &schemaStep{Version: version}
			steps[version] = step
		}
		if up {
			step.Up = string(content)
		} else {
			step.Down = string(content)
		}
	}

	ordered := make([]schemaStep, 0, len(steps))
	for _, step := range steps {
		if step.Up == "" || step.Down == "" {
			return nil, fmt.Errorf("schema version %d is missing its up or down half", step.Version)
		}
		ordered = append(ordered, *step)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	return ordered, nil
}

// RunMigrations brings the local database up to the current schema,
// recording applied versions in schema_migrations. Idempotent, so it runs
// unconditionally on startup.
func RunMigrations(db *sql.DB) error {
	steps, err := loadSchema()
	if err != nil {
		return err
	}
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if applied[step.Version] {
			continue
		}
		err := runStep(db, step.Up, func(tx *sql.Tx) error {
			_, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", step.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply schema version %d: %w", step.Version, err)
		}
	}

	return nil
}

// ResetSchema reverses every applied step in descending order, dropping the
// persisted credential pair along with the tables that hold it. A database
// with nothing applied is left untouched. Backs `setup --reset`.
func ResetSchema(db *sql.DB) error {
	steps, err := loadSchema()
	if err != nil {
		return err
	}
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if !applied[step.Version] {
			continue
		}
		err := runStep(db, step.Down, func(tx *sql.Tx) error {
			_, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", step.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to reverse schema version %d: %w", step.Version, err)
		}
	}

	return nil
}

func ensureVersionTable(db *sql.DB) error {
	query := `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied schema versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan schema version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// runStep executes one schema half and its version bookkeeping in a single
// transaction, so a failed statement leaves the version record untouched.
func runStep(db *sql.DB, statement string, record func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(statement); err != nil {
		return fmt.Errorf("failed to execute schema statement: %w", err)
	}
	if err := record(tx); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return tx.Commit()
}
