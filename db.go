package progmem

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB stores encoded blobs keyed by the SHA-1 of the source image and the
// fingerprint of the catalog used.
type DB struct {
	db *sql.DB
}

// Asset summarises one stored result.
type Asset struct {
	Name    string
	SHA1    string
	Kind    Kind
	Width   int
	Height  int
	Blobs   int
	Bytes   int
	Catalog string
}

// NewDB opens, creating if necessary, the database in file.
func NewDB(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS raster (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS asset (id INTEGER PRIMARY KEY NOT NULL, raster_id INTEGER NOT NULL, name TEXT NOT NULL, catalog TEXT NOT NULL, kind INTEGER NOT NULL, UNIQUE(raster_id, catalog), FOREIGN KEY(raster_id) REFERENCES raster(id))"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS blob (asset_id INTEGER NOT NULL, idx INTEGER NOT NULL, data BLOB NOT NULL, PRIMARY KEY(asset_id, idx), FOREIGN KEY(asset_id) REFERENCES asset(id))"); err != nil {
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

func addRaster(tx *sql.Tx, sha string, width, height int) (int64, error) {
	var id int64
	switch err := tx.QueryRow("SELECT id FROM raster WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO raster (sha1, width, height) VALUES (?, ?, ?)", sha, width, height)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// AddResult stores every present blob of r, replacing anything stored
// before for the same image and catalog.
func (db *DB) AddResult(sha string, r *Result) (err error) {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	rasterID, err := addRaster(tx, sha, r.Width, r.Height)
	if err != nil {
		return err
	}

	fingerprint := r.Catalog.Fingerprint()
	if _, err = tx.Exec("DELETE FROM blob WHERE asset_id IN (SELECT id FROM asset WHERE raster_id = ? AND catalog = ?)", rasterID, fingerprint); err != nil {
		return err
	}
	if _, err = tx.Exec("DELETE FROM asset WHERE raster_id = ? AND catalog = ?", rasterID, fingerprint); err != nil {
		return err
	}

	result, err := tx.Exec("INSERT INTO asset (raster_id, name, catalog, kind) VALUES (?, ?, ?, ?)", rasterID, r.Name, fingerprint, int(r.Catalog.Kind))
	if err != nil {
		return err
	}
	assetID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for _, b := range r.Blobs {
		if len(b.Data) == 0 {
			continue
		}
		if _, err = tx.Exec("INSERT INTO blob (asset_id, idx, data) VALUES (?, ?, ?)", assetID, b.Index, b.Data); err != nil {
			return err
		}
	}

	return nil
}

// FindBlobs returns the stored blobs for the image and catalog, keyed by
// definition index. It reports false if nothing has been stored.
func (db *DB) FindBlobs(sha, fingerprint string) (map[int][]byte, bool, error) {
	var assetID int64
	switch err := db.db.QueryRow("SELECT a.id FROM asset AS a JOIN raster AS r ON a.raster_id = r.id WHERE r.sha1 = ? AND a.catalog = ?", sha, fingerprint).Scan(&assetID); err {
	case sql.ErrNoRows:
		return nil, false, nil
	case nil:
	default:
		return nil, false, err
	}

	rows, err := db.db.Query("SELECT idx, data FROM blob WHERE asset_id = ?", assetID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	blobs := make(map[int][]byte)
	for rows.Next() {
		var idx int
		var data []byte
		if err := rows.Scan(&idx, &data); err != nil {
			return nil, false, err
		}
		blobs[idx] = data
	}

	return blobs, true, rows.Err()
}

// Assets lists every stored result ordered by name.
func (db *DB) Assets() ([]Asset, error) {
	rows, err := db.db.Query("SELECT a.name, r.sha1, a.kind, r.width, r.height, a.catalog, COUNT(b.idx), COALESCE(SUM(LENGTH(b.data)), 0) FROM asset AS a JOIN raster AS r ON a.raster_id = r.id LEFT JOIN blob AS b ON b.asset_id = a.id GROUP BY a.id ORDER BY a.name, r.sha1")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		var kind int
		if err := rows.Scan(&a.Name, &a.SHA1, &kind, &a.Width, &a.Height, &a.Catalog, &a.Blobs, &a.Bytes); err != nil {
			return nil, err
		}
		a.Kind = Kind(kind)
		assets = append(assets, a)
	}

	return assets, rows.Err()
}
