package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/karimzahran/sakan/internal/auth"
	"github.com/karimzahran/sakan/internal/logging"
	"github.com/karimzahran/sakan/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API server the mobile client and CLI talk to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(port int) error {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg := auth.ConfigFromEnv()
	logging.Setup(cfg.DevMode)

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	if cfg.DevMode {
		logging.Component("cli").Info("dev mode enabled", "pid", os.Getpid())
	}

	return web.NewServer(database, cfg).ListenAndServe(port)
}
