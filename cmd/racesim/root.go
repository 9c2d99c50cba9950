package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/pixelrace/internal/raceclient"
	"github.com/okian/pixelrace/pkg/logger"
)

const (
	defaultURL     = "http://localhost:9080"
	defaultTimeout = 10 * time.Second
	defaultRaceCap = 5 * time.Minute
)

// remoteFlags are shared by the commands that talk to a server.
type remoteFlags struct {
	url     string
	timeout time.Duration
}

func (f *remoteFlags) client() (*raceclient.Client, error) {
	return raceclient.New(f.url, raceclient.WithTimeout(f.timeout))
}

func newRootCmd() *cobra.Command {
	var (
		logFormat string
		logLevel  string
		remote    remoteFlags
	)

	cmd := &cobra.Command{
		Use:          "racesim",
		Short:        "Run pixel races without a browser",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr(), logFormat); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	remoteCmds := []*cobra.Command{newRemoteCmd(&remote), newWatchCmd(&remote)}
	for _, c := range remoteCmds {
		c.Flags().StringVar(&remote.url, "url", defaultURL, "base URL of the server")
		c.Flags().DurationVar(&remote.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(remoteCmds...)
	return cmd
}
