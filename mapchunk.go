/*
Package mapchunk is a library for indexing the map chunk archives of a tile
based game world.

Archives are decoded with the archive and chunk packages and their sprites
are stored in a SQLite database where they can be searched by element.
*/
package mapchunk

import (
	"log"

	"github.com/bodgit/mapchunk/config"
)

// Index decodes map archives into a ChunkDB.
type Index struct {
	db      *ChunkDB
	logger  *log.Logger
	workers int
	strict  bool
}

// New opens, creating if necessary, the database in file.
func New(file string, logger *log.Logger) (*Index, error) {
	db, err := NewChunkDB(file)
	if err != nil {
		return nil, err
	}
	return &Index{
		db:      db,
		logger:  logger,
		workers: config.DefaultWorkers,
	}, nil
}

// SetWorkers sets how many archives are decoded concurrently.
func (i *Index) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	i.workers = n
}

// SetStrict enables logging of color records that resolve to the default
// color because their length is unsupported.
func (i *Index) SetStrict(strict bool) {
	i.strict = strict
}

// DB returns the underlying database.
func (i *Index) DB() *ChunkDB {
	return i.db
}

func (i *Index) Close() error {
	return i.db.Close()
}
