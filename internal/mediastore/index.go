package mediastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/photosync/internal/common"
	"github.com/dmitrijs2005/photosync/internal/dbx"
	"github.com/dmitrijs2005/photosync/internal/mediastore/migrations"

	_ "modernc.org/sqlite"
)

// IndexedImage is one row of the media index. RemoteKey is empty until the
// photo has been uploaded.
type IndexedImage struct {
	ImageReference
	RemoteKey  string
	UploadedAt time.Time
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenDB opens the SQLite file at dsn and brings the schema up to date.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serialises them anyway.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate media index: %w", err)
	}
	return db, nil
}

// Index is a Lister backed by the images table.
type Index struct {
	db      *sql.DB
	granted func() bool
}

func NewIndex(db *sql.DB, granted func() bool) *Index {
	if granted == nil {
		granted = func() bool { return true }
	}
	return &Index{db: db, granted: granted}
}

func (x *Index) List(ctx context.Context) ([]ImageReference, error) {
	if !x.granted() {
		return nil, &common.PermissionError{Capability: common.CapabilityStorage}
	}

	query := `select path, taken_at from images order by taken_at desc, path asc`
	rows, err := x.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting images: %w", err)
	}
	defer rows.Close()

	result := []ImageReference{}
	for rows.Next() {
		var ref ImageReference
		var takenAt int64
		if err := rows.Scan(&ref.Path, &takenAt); err != nil {
			return nil, err
		}
		ref.TakenAt = time.Unix(0, takenAt)
		result = append(result, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Record adds a newly saved photo. Recording a path twice keeps the first
// row and its upload state.
func (x *Index) Record(ctx context.Context, ref ImageReference) error {
	return record(ctx, x.db, ref)
}

func record(ctx context.Context, db dbx.DBTX, ref ImageReference) error {
	query := `insert into images (path, taken_at) values (?, ?) on conflict(path) do nothing`
	if _, err := db.ExecContext(ctx, query, ref.Path, ref.TakenAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to record image: %w", err)
	}
	return nil
}

// Import records every reference src lists, in one transaction, and
// returns how many were new.
func (x *Index) Import(ctx context.Context, src Lister) (int, error) {
	refs, err := src.List(ctx)
	if err != nil {
		return 0, err
	}

	var before, after int
	err = dbx.WithTx(ctx, x.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := tx.QueryRowContext(ctx, `select count(*) from images`).Scan(&before); err != nil {
			return err
		}
		for _, ref := range refs {
			if err := record(ctx, tx, ref); err != nil {
				return err
			}
		}
		return tx.QueryRowContext(ctx, `select count(*) from images`).Scan(&after)
	})
	if err != nil {
		return 0, fmt.Errorf("error importing images: %w", err)
	}
	return after - before, nil
}

// Pending returns photos not uploaded yet, oldest first so a sync
// uploads in capture order.
func (x *Index) Pending(ctx context.Context) ([]IndexedImage, error) {
	query := `select path, taken_at from images where remote_key = '' order by taken_at asc, path asc`
	rows, err := x.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting pending images: %w", err)
	}
	defer rows.Close()

	var result []IndexedImage
	for rows.Next() {
		var item IndexedImage
		var takenAt int64
		if err := rows.Scan(&item.Path, &takenAt); err != nil {
			return nil, err
		}
		item.TakenAt = time.Unix(0, takenAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkUploaded stores the remote key of path. Unknown paths return
// common.ErrorNotFound.
func (x *Index) MarkUploaded(ctx context.Context, path, key string, at time.Time) error {
	query := `update images set remote_key = ?, uploaded_at = ? where path = ?`
	result, err := x.db.ExecContext(ctx, query, key, at.UnixNano(), path)
	if err != nil {
		return fmt.Errorf("failed to mark image uploaded: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return fmt.Errorf("image %s: %w", path, common.ErrorNotFound)
	}
	return nil
}

// Get returns the row for path.
func (x *Index) Get(ctx context.Context, path string) (*IndexedImage, error) {
	query := `select path, taken_at, remote_key, uploaded_at from images where path = ?`
	var item IndexedImage
	var takenAt int64
	var uploadedAt sql.NullInt64
	err := x.db.QueryRowContext(ctx, query, path).Scan(&item.Path, &takenAt, &item.RemoteKey, &uploadedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("image %s: %w", path, common.ErrorNotFound)
	}
	if err != nil {
		return nil, err
	}
	item.TakenAt = time.Unix(0, takenAt)
	if uploadedAt.Valid {
		item.UploadedAt = time.Unix(0, uploadedAt.Int64)
	}
	return &item, nil
}
