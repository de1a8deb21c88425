package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb/maptile"
)

const mbtilesSchema = `
CREATE TABLE IF NOT EXISTS metadata (name TEXT, value TEXT, UNIQUE (name));
CREATE TABLE IF NOT EXISTS tiles (
	zoom_level INTEGER,
	tile_column INTEGER,
	tile_row INTEGER,
	tile_data BLOB,
	UNIQUE (zoom_level, tile_column, tile_row)
);`

// MBTilesStore keeps tiles in an MBTiles SQLite database. Rows are stored
// in TMS order as the format requires.
type MBTilesStore struct {
	db *sql.DB
}

// OpenMBTiles opens or creates the database at path.
func OpenMBTiles(path string) (*MBTilesStore, error) {
	if path == "" {
		return nil, errors.New("cache: mbtiles store needs a path")
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open mbtiles %s: %w", path, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(mbtilesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create mbtiles schema: %w", err)
	}
	return &MBTilesStore{db: db}, nil
}

func tmsRow(t maptile.Tile) int64 {
	return int64(1)<<uint(t.Z) - 1 - int64(t.Y)
}

func (s *MBTilesStore) Get(ctx context.Context, t maptile.Tile) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		t.Z, t.X, tmsRow(t)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
	}
	return data, true, nil
}

func (s *MBTilesStore) Put(ctx context.Context, t maptile.Tile, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
		t.Z, t.X, tmsRow(t), data)
	if err != nil {
		return fmt.Errorf("insert tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
	}
	return nil
}

// SetMetadata writes one row of the metadata table.
func (s *MBTilesStore) SetMetadata(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)`, name, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", name, err)
	}
	return nil
}

// Metadata returns the metadata table.
func (s *MBTilesStore) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	md := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		md[name] = value
	}
	return md, rows.Err()
}

func (s *MBTilesStore) Close() error {
	return s.db.Close()
}
