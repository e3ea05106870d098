package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/tagdex"
	"github.com/hupe1980/tagdex/codec"
)

// config is the optional YAML configuration file. Flags override it; files
// given with --file are appended to Files.
type config struct {
	// Files are document paths, relative to the config file.
	Files []string `yaml:"files" validate:"dive,required"`
	// Codec forces the input codec; empty picks one per file extension.
	Codec    string `yaml:"codec" validate:"omitempty,oneof=json go-json yaml"`
	Output   string `yaml:"output" validate:"required,oneof=json go-json yaml"`
	LogLevel string `yaml:"log_level" validate:"required,oneof=debug info warn error"`
}

func defaultConfig() config {
	return config{Output: "json", LogLevel: "warn"}
}

type app struct {
	configPath string
	files      []string
	codec      string
	output     string
	logLevel   string

	cfg    config
	logger *tagdex.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "tagdex",
		Short:         "Query tagged documents",
		Long:          "tagdex loads documents of tagged entries (tuple lists or tag maps, JSON or YAML) into one collection and evaluates tag queries against it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	pf.StringArrayVarP(&a.files, "file", "f", nil, "document to load (repeatable)")
	pf.StringVar(&a.codec, "codec", "", "input codec: json, go-json or yaml (default: by extension)")
	pf.StringVarP(&a.output, "output", "o", "", "output codec: json, go-json or yaml (default json)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (default warn)")

	cmd.AddCommand(newQueryCmd(a), newTagsCmd(a), newStatsCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = defaultConfig()
	if a.configPath != "" {
		data, err := os.ReadFile(a.configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &a.cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", a.configPath, err)
		}
		dir := filepath.Dir(a.configPath)
		for i, p := range a.cfg.Files {
			if p != "" && !filepath.IsAbs(p) {
				a.cfg.Files[i] = filepath.Join(dir, p)
			}
		}
	}

	flags := cmd.Flags()
	if flags.Changed("codec") {
		a.cfg.Codec = a.codec
	}
	if flags.Changed("output") {
		a.cfg.Output = a.output
	}
	if flags.Changed("log-level") {
		a.cfg.LogLevel = a.logLevel
	}
	a.cfg.Files = append(a.cfg.Files, a.files...)

	if err := validator.New().Struct(a.cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.LogLevel)); err != nil {
		return err
	}
	a.logger = tagdex.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) inputCodec(path string) codec.Codec {
	if c, ok := codec.ByName(a.cfg.Codec); ok {
		return c
	}
	return codec.ForPath(path)
}

// load decodes every configured file in parallel and merges them, in file
// order, into one collection. Compressed files are recognized by suffix.
// It also returns the total number of bytes read.
func (a *app) load(ctx context.Context) (*tagdex.Dex[string], int64, error) {
	if len(a.cfg.Files) == 0 {
		return nil, 0, fmt.Errorf("no documents: pass --file or list files in the config")
	}

	parts := make([]*tagdex.Dex[string], len(a.cfg.Files))
	sizes := make([]int64, len(a.cfg.Files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range a.cfg.Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			comp, base := codec.CompressionForPath(path)
			data, err := codec.Decompress(comp, raw)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			part := tagdex.New[string]()
			n, err := part.ImportDocument(a.inputCodec(base), data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			a.logger.Debug("document decoded", "path", path, "compression", comp.String(), "entries", n)
			parts[i], sizes[i] = part, int64(len(raw))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	d := tagdex.New[string](tagdex.WithLogger(a.logger))
	var total int64
	for i, part := range parts {
		if err := d.CopyFrom(part); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", a.cfg.Files[i], err)
		}
		total += sizes[i]
	}
	a.logger.Info("documents loaded", "files", len(parts), "entries", d.Len(), "tags", d.TagCount())
	return d, total, nil
}

// print encodes v with the output codec.
func (a *app) print(cmd *cobra.Command, v any) error {
	c, ok := codec.ByName(a.cfg.Output)
	if !ok {
		c = codec.Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(b); err != nil {
		return err
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		_, err = fmt.Fprintln(out)
	}
	return err
}
