package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/bodgit/mapchunk"
	"github.com/bodgit/mapchunk/archive"
	"github.com/bodgit/mapchunk/chunk"
	"github.com/bodgit/mapchunk/config"
	"github.com/klauspost/compress/zip"
	"github.com/urfave/cli/v2"
)

const defaultDB = "mapchunk.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// logOutput returns where log output goes. Strict mode warnings are always
// shown.
func logOutput(verbose, strict bool) io.Writer {
	if verbose || strict {
		return os.Stderr
	}
	return ioutil.Discard
}

func newLogger(c *cli.Context, cfg config.Config) *log.Logger {
	return log.New(logOutput(c.Bool("verbose"), cfg.Strict), "", 0)
}

// settings merges the configuration file, if any, with explicit flags.
func settings(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if file := c.String("config"); file != "" {
		var err error
		if cfg, err = config.Load(file); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("db") || cfg.DB == "" {
		cfg.DB = c.String("db")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("size") {
		cfg.PaletteSize = c.Int("size")
	}
	if c.IsSet("strict") {
		cfg.Strict = c.Bool("strict")
	}
	return cfg, nil
}

// load decodes file as a map archive, falling back to a single raw chunk
// record if it isn't one.
func load(file string, logger *log.Logger, strict bool) (*archive.Map, error) {
	r := new(archive.Reader)
	if strict {
		r.Decoder.Warn = func(w chunk.Warning) {
			logger.Printf("%s: %s\n", file, w)
		}
	}

	m, err := r.Open(file)
	if !errors.Is(err, zip.ErrFormat) {
		return m, err
	}

	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	c, n, err := r.Decoder.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if n != len(b) {
		logger.Printf("%s: %d trailing bytes after chunk\n", file, len(b)-n)
	}
	return &archive.Map{Name: archive.Name(file), Chunks: []*chunk.Chunk{c}}, nil
}

func formatColor(c chunk.Color) string {
	return fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", c.R, c.G, c.B, c.A)
}

func dump(w io.Writer, m *archive.Map) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	for _, c := range m.Chunks {
		fmt.Fprintf(tw, "chunk\t%d,%d\tmin %d,%d,%d\tmax %d,%d,%d\t%d sprites\n", c.OriginX, c.OriginY, c.MinX, c.MinY, c.MinZ, c.MaxX, c.MaxY, c.MaxZ, len(c.Sprites))
		for _, s := range c.Sprites {
			fmt.Fprintf(tw, "\t%d,%d,%d\theight %d\torder %d\ttype %#04x\telement %d\tgroup %d/%d\tlayer %d\t%s\n", s.CellX, s.CellY, s.CellZ, s.Height, s.AltitudeOrder, s.Type, s.ElementID, s.GroupKey, s.GroupID, s.Layer, formatColor(s.Color))
		}
	}
	return tw.Flush()
}

func main() {
	app := cli.NewApp()

	app.Name = "mapchunk"
	app.Usage = "Map chunk archive decoding and indexing utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"MAPCHUNK_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"MAPCHUNK_CONFIG"},
			Usage:   "path to YAML configuration",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "dump",
			Usage:       "Decode a map archive or chunk file and print its contents",
			Description: "",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "strict",
					Usage: "report color records that can't be resolved",
				},
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print JSON instead of text",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := settings(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				m, err := load(c.Args().First(), newLogger(c, cfg), cfg.Strict)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if c.Bool("json") {
					enc := json.NewEncoder(c.App.Writer)
					enc.SetIndent("", "  ")
					if err := enc.Encode(m); err != nil {
						return cli.NewExitError(err, 1)
					}
					return nil
				}

				if err := dump(c.App.Writer, m); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "import",
			Usage:       "Decode map archives and store them in the database",
			Description: "",
			ArgsUsage:   "PATH",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: config.DefaultWorkers,
					Usage: "number of archives to decode concurrently",
				},
				&cli.BoolFlag{
					Name:  "strict",
					Usage: "report color records that can't be resolved",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := settings(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				i, err := mapchunk.New(cfg.DB, newLogger(c, cfg))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer i.Close()

				i.SetWorkers(cfg.Workers)
				i.SetStrict(cfg.Strict)

				if err := i.Import(c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "find",
			Usage:       "List every stored sprite referencing an element",
			Description: "",
			ArgsUsage:   "ELEMENT_ID",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				id, err := strconv.ParseUint(c.Args().First(), 10, 8)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				cfg, err := settings(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				db, err := mapchunk.NewChunkDB(cfg.DB)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				refs, err := db.FindSpritesByElement(uint8(id))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				tw := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
				for _, r := range refs {
					s := r.Sprite
					fmt.Fprintf(tw, "%s\t%d,%d\t%d,%d,%d\tlayer %d\t%s\n", r.Map, r.OriginX, r.OriginY, s.CellX, s.CellY, s.CellZ, s.Layer, formatColor(s.Color))
				}
				if err := tw.Flush(); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "stats",
			Usage:       "Count the maps, chunks and sprites in the database",
			Description: "",
			Action: func(c *cli.Context) error {
				cfg, err := settings(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				db, err := mapchunk.NewChunkDB(cfg.DB)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				s, err := db.Stats()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "%d maps, %d chunks, %d sprites\n", s.Maps, s.Chunks, s.Sprites)

				return nil
			},
		},
		{
			Name:        "palette",
			Usage:       "Print the dominant sprite tints of a map archive or chunk file",
			Description: "",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "size",
					Value: config.DefaultPaletteSize,
					Usage: "maximum number of tints",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := settings(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				m, err := load(c.Args().First(), newLogger(c, cfg), cfg.Strict)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, t := range mapchunk.DominantTints(m.Chunks, cfg.PaletteSize) {
					fmt.Fprintln(c.App.Writer, formatColor(t))
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
