package main

import (
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/geojson-viewer/internal/document"
	"github.com/joeblew999/geojson-viewer/internal/logger"
	"github.com/joeblew999/geojson-viewer/internal/report"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Format string `short:"f" long:"format" env:"GEOCHECK_FORMAT" description:"Report format" choice:"json" choice:"yaml" default:"json"`
	Out    string `short:"o" long:"out"    env:"GEOCHECK_OUT"    description:"Write the report to this file instead of stdout"`

	Args struct {
		Files []string `positional-arg-name:"FILE" required:"1" description:"GeoJSON files, loaded as one batch"`
	} `positional-args:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	files := make([]document.File, 0, len(opts.Args.Files))
	for _, path := range opts.Args.Files {
		f := document.PathFile(path)
		if !document.Advisory(f.Name(), "") {
			log.Warn().Str("file", path).Msg("File does not look like GeoJSON, trying anyway")
		}
		files = append(files, f)
	}

	var out io.Writer = os.Stdout
	if opts.Out != "" {
		fh, err := os.Create(opts.Out)
		if err != nil {
			log.Fatal().Err(err).Str("path", opts.Out).Msg("Failed to create report file")
		}
		defer fh.Close()
		out = fh
	}

	var rep report.Report
	docs, err := document.IngestBatch(files)
	if err != nil {
		log.Error().Err(err).Int("batch", len(files)).Msg("Batch rejected")
		rep = report.Failed(err)
	} else {
		rep = report.Build(docs)
		log.Info().Int("documents", len(docs)).Int("points", rep.Points).Msg("Batch loaded")
	}

	if werr := rep.Write(out, opts.Format); werr != nil {
		log.Fatal().Err(werr).Msg("Failed to write report")
	}
	if err != nil {
		if c, ok := out.(io.Closer); ok && out != os.Stdout {
			c.Close()
		}
		os.Exit(1)
	}
}
