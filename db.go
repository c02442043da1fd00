package mapchunk

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"sync"

	"github.com/bodgit/mapchunk/archive"
	"github.com/bodgit/mapchunk/chunk"
	_ "github.com/mattn/go-sqlite3"
)

// ChunkDB is a SQLite index of decoded map chunks and their sprites.
type ChunkDB struct {
	db *sql.DB

	// SQLite allows one writer at a time
	mu sync.Mutex
}

// Stats counts the rows held in a ChunkDB.
type Stats struct {
	Maps    int
	Chunks  int
	Sprites int
}

// SpriteRef is a sprite together with the map and chunk it was found in.
type SpriteRef struct {
	Map              string
	OriginX, OriginY int32
	Sprite           chunk.Sprite
}

func NewChunkDB(file string) (*ChunkDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS map (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS chunk (id INTEGER PRIMARY KEY NOT NULL, map_id INTEGER NOT NULL, sha1 TEXT NOT NULL, origin_x INTEGER NOT NULL, origin_y INTEGER NOT NULL, min_x INTEGER NOT NULL, min_y INTEGER NOT NULL, min_z INTEGER NOT NULL, max_x INTEGER NOT NULL, max_y INTEGER NOT NULL, max_z INTEGER NOT NULL, UNIQUE(map_id, sha1), FOREIGN KEY(map_id) REFERENCES map(id) ON DELETE CASCADE)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sprite (chunk_id INTEGER NOT NULL, seq INTEGER NOT NULL, cell_x INTEGER NOT NULL, cell_y INTEGER NOT NULL, cell_z INTEGER NOT NULL, height INTEGER NOT NULL, altitude_order INTEGER NOT NULL, type INTEGER NOT NULL, element_id INTEGER NOT NULL, group_key INTEGER NOT NULL, group_id INTEGER NOT NULL, layer INTEGER NOT NULL, r REAL NOT NULL, g REAL NOT NULL, b REAL NOT NULL, a REAL NOT NULL, PRIMARY KEY(chunk_id, seq), FOREIGN KEY(chunk_id) REFERENCES chunk(id) ON DELETE CASCADE)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS sprite_element ON sprite (element_id)"); err != nil {
		return nil, err
	}

	return &ChunkDB{
		db: db,
	}, nil
}

func (db *ChunkDB) Close() error {
	return db.db.Close()
}

// AddMap replaces everything stored under the map's name with its current
// chunks. Chunks whose encoded record is identical to an earlier chunk in the
// same map are skipped and counted.
func (db *ChunkDB) AddMap(m *archive.Map) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM map WHERE name = ?", m.Name); err != nil {
		return 0, err
	}

	result, err := tx.Exec("INSERT INTO map (name) VALUES (?)", m.Name)
	if err != nil {
		return 0, err
	}
	mapID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare("INSERT INTO sprite (chunk_id, seq, cell_x, cell_y, cell_z, height, altitude_order, type, element_id, group_key, group_id, layer, r, g, b, a) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var skipped int
	for _, c := range m.Chunks {
		b, err := c.MarshalBinary()
		if err != nil {
			return 0, err
		}
		sha := fmt.Sprintf("%X", sha1.Sum(b))

		result, err := tx.Exec("INSERT OR IGNORE INTO chunk (map_id, sha1, origin_x, origin_y, min_x, min_y, min_z, max_x, max_y, max_z) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", mapID, sha, c.OriginX, c.OriginY, c.MinX, c.MinY, c.MinZ, c.MaxX, c.MaxY, c.MaxZ)
		if err != nil {
			return 0, err
		}
		if n, err := result.RowsAffected(); err != nil {
			return 0, err
		} else if n == 0 {
			skipped++
			continue
		}
		chunkID, err := result.LastInsertId()
		if err != nil {
			return 0, err
		}

		for i, s := range c.Sprites {
			if _, err := stmt.Exec(chunkID, i, s.CellX, s.CellY, s.CellZ, s.Height, s.AltitudeOrder, s.Type, s.ElementID, s.GroupKey, s.GroupID, s.Layer, s.Color.R, s.Color.G, s.Color.B, s.Color.A); err != nil {
				return 0, err
			}
		}
	}

	return skipped, tx.Commit()
}

// FindSpritesByElement returns every sprite referencing the element, ordered
// by map, chunk origin and decode order.
func (db *ChunkDB) FindSpritesByElement(elementID uint8) ([]SpriteRef, error) {
	rows, err := db.db.Query("SELECT m.name, c.origin_x, c.origin_y, s.cell_x, s.cell_y, s.cell_z, s.height, s.altitude_order, s.type, s.element_id, s.group_key, s.group_id, s.layer, s.r, s.g, s.b, s.a FROM sprite AS s JOIN chunk AS c ON s.chunk_id = c.id JOIN map AS m ON c.map_id = m.id WHERE s.element_id = ? ORDER BY m.name, c.origin_x, c.origin_y, s.seq", elementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []SpriteRef
	for rows.Next() {
		var ref SpriteRef
		s := &ref.Sprite
		if err := rows.Scan(&ref.Map, &ref.OriginX, &ref.OriginY, &s.CellX, &s.CellY, &s.CellZ, &s.Height, &s.AltitudeOrder, &s.Type, &s.ElementID, &s.GroupKey, &s.GroupID, &s.Layer, &s.Color.R, &s.Color.G, &s.Color.B, &s.Color.A); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

// Stats counts the maps, chunks and sprites stored.
func (db *ChunkDB) Stats() (Stats, error) {
	var s Stats
	if err := db.db.QueryRow("SELECT (SELECT COUNT(*) FROM map), (SELECT COUNT(*) FROM chunk), (SELECT COUNT(*) FROM sprite)").Scan(&s.Maps, &s.Chunks, &s.Sprites); err != nil {
		return Stats{}, err
	}
	return s, nil
}
