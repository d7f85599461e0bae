package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
	"github.com/seat-planner/backend/internal/models"
	"go.uber.org/zap"
)

// DuckStore keeps layouts in a DuckDB file. Metadata lives in columns so
// listing never decodes payloads; the document itself is a msgpack blob.
type DuckStore struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
	logger *zap.Logger
}

// NewDuckStore opens (or creates) the database at dbPath.
func NewDuckStore(dbPath string, threads int, logger *zap.Logger) (*DuckStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threads <= 0 {
		threads = 4
	}
	logger.Info("opening layout database", zap.String("path", dbPath))

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA threads=%d", threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				// Non-fatal - continue even if pragma fails
				logger.Warn("pragma failed", zap.String("pragma", pragma), zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS layouts (
			id            VARCHAR PRIMARY KEY,
			name          VARCHAR NOT NULL,
			version       VARCHAR,
			element_count INTEGER NOT NULL,
			chair_count   INTEGER NOT NULL,
			size          BIGINT NOT NULL,
			saved_at      TIMESTAMP NOT NULL,
			payload       BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &DuckStore{db: db, dbPath: dbPath, now: time.Now, logger: logger}, nil
}

// Save upserts doc. The previous row with the same id is replaced in one
// transaction.
func (ds *DuckStore) Save(ctx context.Context, id string, doc *models.LayoutDocument) (*models.LayoutInfo, error) {
	if id == "" {
		id = uuid.New().String()
	}
	savedAt := doc.Meta.SavedAt
	if savedAt.IsZero() {
		savedAt = ds.now()
	}
	savedAt = savedAt.UTC()

	payload, err := encodePayload(doc)
	if err != nil {
		return nil, err
	}
	info := infoFor(id, doc, len(payload), savedAt)

	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("replacing layout: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO layouts (id, name, version, element_count, chair_count, size, saved_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.Name, info.Version, info.ElementCount, info.ChairCount, info.Size, info.SavedAt, payload)
	if err != nil {
		return nil, fmt.Errorf("inserting layout: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit layout: %w", err)
	}

	ds.logger.Debug("layout saved",
		zap.String("layout_id", id),
		zap.Int("elements", info.ElementCount),
		zap.Int64("bytes", info.Size))
	return info, nil
}

// Load decodes the stored document with id.
func (ds *DuckStore) Load(ctx context.Context, id string) (*models.LayoutDocument, error) {
	var payload []byte
	err := ds.db.QueryRowContext(ctx, `SELECT payload FROM layouts WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading layout: %w", err)
	}
	return decodePayload(payload)
}

const infoColumns = `id, name, version, element_count, chair_count, size, saved_at`

func scanInfo(row interface{ Scan(...any) error }) (*models.LayoutInfo, error) {
	var (
		info    models.LayoutInfo
		version sql.NullString
	)
	if err := row.Scan(&info.ID, &info.Name, &version, &info.ElementCount, &info.ChairCount, &info.Size, &info.SavedAt); err != nil {
		return nil, err
	}
	info.Version = version.String
	info.SavedAt = info.SavedAt.UTC()
	return &info, nil
}

// Get retrieves layout metadata by ID.
func (ds *DuckStore) Get(ctx context.Context, id string) (*models.LayoutInfo, error) {
	info, err := scanInfo(ds.db.QueryRowContext(ctx, `SELECT `+infoColumns+` FROM layouts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading layout info: %w", err)
	}
	return info, nil
}

// List returns the most recently saved layouts first. A non-positive limit
// returns all of them.
func (ds *DuckStore) List(ctx context.Context, limit int) ([]*models.LayoutInfo, error) {
	query := `SELECT ` + infoColumns + ` FROM layouts ORDER BY saved_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing layouts: %w", err)
	}
	defer rows.Close()

	list := []*models.LayoutInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning layout: %w", err)
		}
		list = append(list, info)
	}
	return list, rows.Err()
}

// Delete removes the layout with id.
func (ds *DuckStore) Delete(ctx context.Context, id string) error {
	res, err := ds.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting layout: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
	}
	return nil
}

// Close releases the database. The file is kept.
func (ds *DuckStore) Close() error {
	if ds.db != nil {
		return ds.db.Close()
	}
	return nil
}
