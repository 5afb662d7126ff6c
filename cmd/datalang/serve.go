package main

import (
	"github.com/spf13/cobra"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP compile service",
		Long: `Start the DataLang HTTP compile service.

Endpoints:
  POST /api/v1/compile            Resolve a schema (body: DataLang source)
  POST /api/v1/generate           Generate code (?target=&package=)
  POST /api/v1/validate/{entity}  Check a record against an entity
  GET  /api/v1/targets            List generation targets
  GET  /health                    Liveness
  GET  /version                   Build version
  GET  /metrics                   Prometheus metrics (when enabled)

The config file is watched; compiler settings and the log level are
reloaded on change or on SIGHUP.

Environment variables:
  DATALANG_SERVER_HOST      - Server host (default: 127.0.0.1)
  DATALANG_SERVER_PORT      - Server port (default: 8080)
  DATALANG_DEFAULT_TARGET   - Default generation target (default: go)
  DATALANG_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  datalang serve
  datalang serve --config /etc/datalang/datalang.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
