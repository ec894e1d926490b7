package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geojson-viewer/internal/logger"
	"github.com/joeblew999/geojson-viewer/internal/server"
)

// Options defines all CLI flags and env vars for the viewer server.
// Flags: --host, --port, --paint, --extensions, --templates, --log-level, --log-format
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_PAINT, ...
type Options struct {
	Host       string `doc:"Host to bind to" default:"0.0.0.0"`
	Port       int    `doc:"Port to listen on" short:"p" default:"8086"`
	Paint      string `doc:"YAML file overriding the layer paint"`
	Extensions string `doc:"Comma separated DuckDB extensions to load"`
	Templates  string `doc:"Directory of fragment templates reloaded on every viewer connection (development)"`
	LogLevel   string `doc:"Log level (trace, debug, info, warn, error)" default:"info"`
	LogFormat  string `doc:"Log format (console, json)" default:"console"`
}

func newServer(opts *Options) (*server.Server, error) {
	var exts []string
	for _, e := range strings.Split(opts.Extensions, ",") {
		if e = strings.TrimSpace(e); e != "" {
			exts = append(exts, e)
		}
	}
	return server.New(server.Config{
		Host:         opts.Host,
		Port:         fmt.Sprintf("%d", opts.Port),
		PaintFile:    opts.Paint,
		Extensions:   exts,
		TemplatesDir: opts.Templates,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger.Logger{Level: opts.LogLevel, Format: opts.LogFormat}.Setup()

		srv, err := newServer(opts)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create server")
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
			Handler: srv.Handler(),
		}

		hooks.OnStart(func() {
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info().
				Str("addr", httpSrv.Addr).
				Str("docs", baseURL+"/docs").
				Str("openapi", baseURL+"/openapi.json").
				Str("events", baseURL+"/api/v1/viewer/events").
				Msg("Web server started")

			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("Server failed")
			}
		})

		hooks.OnStop(func() {
			if err := httpSrv.Close(); err != nil {
				log.Warn().Err(err).Msg("Closing listener")
			}
			if err := srv.Close(); err != nil {
				log.Warn().Err(err).Msg("Closing catalog")
			}
		})
	})

	cli.Root().Use = "geo"
	cli.Root().Short = "GeoJSON viewer server"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger.Logger{Level: "error"}.Setup()

			srv, err := newServer(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
				os.Exit(1)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Run()
}
