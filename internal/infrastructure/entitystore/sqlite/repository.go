// Package sqlite provides a SQLite implementation of the EntityStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/ports"
	"github.com/memoirist/memoir-core/internal/infrastructure/config"
)

// timeFormat is the canonical timestamp encoding. Stored as text so the
// optimistic concurrency check in ApplyMerge can compare for equality.
const timeFormat = time.RFC3339Nano

// Repository implements ports.EntityStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository, creating the parent
// directory of the database file if needed.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Person entities (resolved identities, one row per person per user)
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		canonical_name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		display_name TEXT,
		aliases TEXT NOT NULL DEFAULT '[]',
		gender TEXT,
		birth_date TEXT,
		relationships TEXT NOT NULL DEFAULT '{}',
		confidence_score REAL NOT NULL DEFAULT 0,
		mention_count INTEGER NOT NULL DEFAULT 0,
		first_mentioned_in TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entities_user ON entities(user_id);
	CREATE INDEX IF NOT EXISTS idx_entities_normalized ON entities(user_id, normalized_name);

	-- Audit log (tracks all mutations)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		entity_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

const entityColumns = `id, user_id, canonical_name, display_name, aliases, gender,
		birth_date, relationships, confidence_score, mention_count,
		first_mentioned_in, created_at, updated_at`

// GetEntities returns every entity known for a user.
func (r *Repository) GetEntities(ctx context.Context, userID string) ([]*entities.PersonEntity, error) {
	query := `
		SELECT ` + entityColumns + `
		FROM entities
		WHERE user_id = ?
		ORDER BY canonical_name ASC
	`
	return r.queryEntities(ctx, query, userID)
}

// GetEntity returns an entity by id, or nil if it doesn't exist.
func (r *Repository) GetEntity(ctx context.Context, id string) (*entities.PersonEntity, error) {
	query := `
		SELECT ` + entityColumns + `
		FROM entities
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// CreateEntity persists a new entity.
func (r *Repository) CreateEntity(ctx context.Context, entity *entities.PersonEntity) error {
	return r.insertEntity(ctx, r.db, entity)
}

// UpdateEntity persists changes to an existing entity.
func (r *Repository) UpdateEntity(ctx context.Context, entity *entities.PersonEntity) error {
	aliases, relationships, err := marshalEntityJSON(entity)
	if err != nil {
		return err
	}

	query := `
		UPDATE entities SET
			canonical_name = ?,
			normalized_name = ?,
			display_name = ?,
			aliases = ?,
			gender = ?,
			birth_date = ?,
			relationships = ?,
			confidence_score = ?,
			mention_count = ?,
			first_mentioned_in = ?,
			updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		entity.CanonicalName,
		entities.NormalizeName(entity.CanonicalName),
		nullable(entity.DisplayName),
		aliases,
		nullable(string(entity.Gender)),
		nullable(entity.BirthDate),
		relationships,
		entity.ConfidenceScore,
		entity.MentionCount,
		nullable(entity.FirstMentionedIn),
		entity.UpdatedAt.UTC().Format(timeFormat),
		entity.ID,
	)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ports.ErrEntityNotFound, entity.ID)
	}
	return nil
}

// DeleteEntity removes an entity by id.
func (r *Repository) DeleteEntity(ctx context.Context, id string) error {
	query := `DELETE FROM entities WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ports.ErrEntityNotFound, id)
	}
	return nil
}

// ApplyMerge writes the consolidated survivor and removes the absorbed
// entities in a single transaction. The absorbed deletes and the survivor
// update are all guarded by the updated_at snapshots taken when the merge
// was planned; a mismatch means a concurrent write landed in between, and
// the whole transaction rolls back with ErrMergeConflict.
func (r *Repository) ApplyMerge(ctx context.Context, survivor *entities.PersonEntity, survivorSeen time.Time, absorbed []*entities.PersonEntity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning merge transaction: %w", err)
	}
	defer tx.Rollback()

	for _, victim := range absorbed {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM entities WHERE id = ? AND updated_at = ?`,
			victim.ID,
			victim.UpdatedAt.UTC().Format(timeFormat),
		)
		if err != nil {
			return fmt.Errorf("deleting absorbed entity: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("%w: entity %s changed or vanished during merge", ports.ErrMergeConflict, victim.ID)
		}
	}

	aliases, relationships, err := marshalEntityJSON(survivor)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE entities SET
			canonical_name = ?,
			normalized_name = ?,
			display_name = ?,
			aliases = ?,
			gender = ?,
			birth_date = ?,
			relationships = ?,
			confidence_score = ?,
			mention_count = ?,
			first_mentioned_in = ?,
			updated_at = ?
		WHERE id = ? AND updated_at = ?
	`,
		survivor.CanonicalName,
		entities.NormalizeName(survivor.CanonicalName),
		nullable(survivor.DisplayName),
		aliases,
		nullable(string(survivor.Gender)),
		nullable(survivor.BirthDate),
		relationships,
		survivor.ConfidenceScore,
		survivor.MentionCount,
		nullable(survivor.FirstMentionedIn),
		survivor.UpdatedAt.UTC().Format(timeFormat),
		survivor.ID,
		survivorSeen.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("updating survivor: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: survivor %s changed or vanished during merge", ports.ErrMergeConflict, survivor.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing merge: %w", err)
	}
	return nil
}

// SearchEntities searches entities by canonical name or alias pattern.
func (r *Repository) SearchEntities(ctx context.Context, userID, query string, limit int) ([]*entities.PersonEntity, error) {
	pattern := "%" + entities.NormalizeName(query) + "%"
	sqlQuery := `
		SELECT ` + entityColumns + `
		FROM entities
		WHERE user_id = ? AND (normalized_name LIKE ? OR lower(aliases) LIKE ?)
		ORDER BY canonical_name ASC
		LIMIT ?
	`
	return r.queryEntities(ctx, sqlQuery, userID, pattern, pattern, limit)
}

// CountEntities returns the number of entities for a user.
func (r *Repository) CountEntities(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM entities WHERE user_id = ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting entities: %w", err)
	}
	return count, nil
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, entityID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var entityIDPtr sql.NullString
	if entityID != "" {
		entityIDPtr = sql.NullString{String: entityID, Valid: true}
	}

	query := `INSERT INTO audit_log (action, entity_id, details) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, action, entityIDPtr, detailsJSON)
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific entity.
func (r *Repository) FindAuditLog(ctx context.Context, entityID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, entity_id, details, created_at
		FROM audit_log
		WHERE entity_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.queryAuditLog(ctx, query, entityID)
}

// FindAuditLogByAction finds audit log entries by action type.
func (r *Repository) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, entity_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	return r.queryAuditLog(ctx, query, action, limit)
}

// execer lets insertEntity run inside or outside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertEntity inserts a full entity row.
func (r *Repository) insertEntity(ctx context.Context, ex execer, entity *entities.PersonEntity) error {
	aliases, relationships, err := marshalEntityJSON(entity)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO entities (` + entityColumns + `, normalized_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = ex.ExecContext(ctx, query,
		entity.ID,
		entity.UserID,
		entity.CanonicalName,
		nullable(entity.DisplayName),
		aliases,
		nullable(string(entity.Gender)),
		nullable(entity.BirthDate),
		relationships,
		entity.ConfidenceScore,
		entity.MentionCount,
		nullable(entity.FirstMentionedIn),
		entity.CreatedAt.UTC().Format(timeFormat),
		entity.UpdatedAt.UTC().Format(timeFormat),
		entities.NormalizeName(entity.CanonicalName),
	)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	return nil
}

// queryEntities is a helper to execute entity queries.
func (r *Repository) queryEntities(ctx context.Context, query string, args ...any) ([]*entities.PersonEntity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.PersonEntity, 0, 16)
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	return result, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntity scans one entity row, decoding the JSON columns.
func scanEntity(row rowScanner) (*entities.PersonEntity, error) {
	var entity entities.PersonEntity
	var displayName, gender, birthDate, firstMentionedIn sql.NullString
	var aliases, relationships, createdAt, updatedAt string

	err := row.Scan(
		&entity.ID,
		&entity.UserID,
		&entity.CanonicalName,
		&displayName,
		&aliases,
		&gender,
		&birthDate,
		&relationships,
		&entity.ConfidenceScore,
		&entity.MentionCount,
		&firstMentionedIn,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}

	entity.DisplayName = displayName.String
	entity.Gender = entities.Gender(gender.String)
	entity.BirthDate = birthDate.String
	entity.FirstMentionedIn = firstMentionedIn.String

	if err := json.Unmarshal([]byte(aliases), &entity.Aliases); err != nil {
		return nil, fmt.Errorf("unmarshaling aliases: %w", err)
	}
	if err := json.Unmarshal([]byte(relationships), &entity.Relationships); err != nil {
		return nil, fmt.Errorf("unmarshaling relationships: %w", err)
	}

	if entity.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if entity.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &entity, nil
}

// marshalEntityJSON encodes the aliases and relationships columns.
func marshalEntityJSON(entity *entities.PersonEntity) (aliases, relationships string, err error) {
	a := entity.Aliases
	if a == nil {
		a = []string{}
	}
	aliasData, err := json.Marshal(a)
	if err != nil {
		return "", "", fmt.Errorf("marshaling aliases: %w", err)
	}

	rel := entity.Relationships
	if rel == nil {
		rel = map[entities.RelationKind][]string{}
	}
	relData, err := json.Marshal(rel)
	if err != nil {
		return "", "", fmt.Errorf("marshaling relationships: %w", err)
	}

	return string(aliasData), string(relData), nil
}

// nullable converts an empty string to a SQL NULL.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// queryAuditLog is a helper to execute audit log queries.
func (r *Repository) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var entityID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entityID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.EntityID = entityID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
