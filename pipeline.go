package mapchunk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/mapchunk/archive"
	"github.com/bodgit/mapchunk/chunk"
)

func isArchive(file string) bool {
	return strings.EqualFold(filepath.Ext(file), ".jar")
}

func (i *Index) findArchives(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if file != base && info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// An archive named directly is used whatever its extension
			if !info.Mode().IsRegular() || file != base && !isArchive(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (i *Index) reader(file string) *archive.Reader {
	r := new(archive.Reader)
	if i.strict {
		r.Decoder.Warn = func(w chunk.Warning) {
			i.logger.Printf("%s: %s\n", file, w)
		}
	}
	return r
}

func (i *Index) archiveWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			m, err := i.reader(file).Open(file)
			if err != nil {
				errc <- err
				return
			}

			skipped, err := i.db.AddMap(m)
			if err != nil {
				errc <- err
				return
			}
			if skipped > 0 {
				i.logger.Printf("Skipped %d duplicate chunks in \"%s\"\n", skipped, file)
			}

			i.logger.Printf("Imported \"%s\" as map \"%s\", %d chunks, %d sprites\n", file, m.Name, len(m.Chunks)-skipped, m.SpriteCount())

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Import decodes every map archive found at path, which may be a single
// archive or a directory searched recursively, and stores them.
func (i *Index) Import(path string) error {
	base, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := i.findArchives(ctx, base)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for n := 0; n < i.workers; n++ {
		errc, err := i.archiveWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
