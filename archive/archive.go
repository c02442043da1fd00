/*
Package archive loads map archives. A map archive is a zip file, usually with
a .jar extension, where every regular entry outside META-INF/ holds exactly
one chunk record.
*/
package archive

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/mapchunk/chunk"
	"github.com/klauspost/compress/zip"
)

// Map is every chunk found in one archive, ordered by origin.
type Map struct {
	Name   string
	Chunks []*chunk.Chunk
}

// Bounds is an axis aligned box in cell units.
type Bounds struct {
	MinX, MinY int32
	MinZ       int16
	MaxX, MaxY int32
	MaxZ       int16
}

// Chunk returns the chunk with the given origin or nil.
func (m *Map) Chunk(x, y int32) *chunk.Chunk {
	i := sort.Search(len(m.Chunks), func(i int) bool {
		c := m.Chunks[i]
		return c.OriginX > x || c.OriginX == x && c.OriginY >= y
	})
	if i < len(m.Chunks) && m.Chunks[i].OriginX == x && m.Chunks[i].OriginY == y {
		return m.Chunks[i]
	}
	return nil
}

// Bounds returns the union of the bounding boxes of every chunk. It returns
// false if the map has no chunks.
func (m *Map) Bounds() (Bounds, bool) {
	if len(m.Chunks) == 0 {
		return Bounds{}, false
	}
	c := m.Chunks[0]
	b := Bounds{c.MinX, c.MinY, c.MinZ, c.MaxX, c.MaxY, c.MaxZ}
	for _, c := range m.Chunks[1:] {
		if c.MinX < b.MinX {
			b.MinX = c.MinX
		}
		if c.MinY < b.MinY {
			b.MinY = c.MinY
		}
		if c.MinZ < b.MinZ {
			b.MinZ = c.MinZ
		}
		if c.MaxX > b.MaxX {
			b.MaxX = c.MaxX
		}
		if c.MaxY > b.MaxY {
			b.MaxY = c.MaxY
		}
		if c.MaxZ > b.MaxZ {
			b.MaxZ = c.MaxZ
		}
	}
	return b, true
}

// SpriteCount returns the total number of sprites across all chunks.
func (m *Map) SpriteCount() (n int) {
	for _, c := range m.Chunks {
		n += len(c.Sprites)
	}
	return
}

// Reader decodes chunk records from map archives.
type Reader struct {
	// Decoder is used for every entry.
	Decoder chunk.Decoder
}

func skip(f *zip.File) bool {
	return f.FileInfo().IsDir() || strings.HasPrefix(strings.ToUpper(f.Name), "META-INF/")
}

func (r *Reader) decodeFile(f *zip.File) (*chunk.Chunk, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	c, n, err := r.Decoder.Decode(b)
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, fmt.Errorf("%d trailing bytes", len(b)-n)
	}
	return c, nil
}

// Read decodes the archive in ra which is size bytes long. The map is given
// the supplied name.
func (r *Reader) Read(ra io.ReaderAt, size int64, name string) (*Map, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, err
	}

	m := &Map{Name: name}
	for _, f := range zr.File {
		if skip(f) {
			continue
		}
		c, err := r.decodeFile(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		m.Chunks = append(m.Chunks, c)
	}

	sort.SliceStable(m.Chunks, func(i, j int) bool {
		a, b := m.Chunks[i], m.Chunks[j]
		if a.OriginX != b.OriginX {
			return a.OriginX < b.OriginX
		}
		return a.OriginY < b.OriginY
	})

	return m, nil
}

// Open decodes the archive at path. The map is named after the file without
// its extension.
func (r *Reader) Open(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return r.Read(f, info.Size(), Name(path))
}

// Name returns the map name for an archive path.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Open decodes the archive at path with a default Reader.
func Open(path string) (*Map, error) {
	var r Reader
	return r.Open(path)
}

// Read decodes an archive with a default Reader.
func Read(ra io.ReaderAt, size int64, name string) (*Map, error) {
	var r Reader
	return r.Read(ra, size, name)
}
