// Command rcopy keeps a copy of a directory tree on a remote server.
//
//	rcopy server PATH_PREFIX        serve PATH_PREFIX/sandbox/dest
//	rcopy client SRC HOST[:PORT]    make the server's copy of SRC identical
//	rcopy cache PATH_PREFIX         list the server's fingerprint cache
//
// Only files whose size or fingerprint differ are transferred, each over its own
// connection while the client keeps walking.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:           "rcopy",
	Short:         "Synchronize a directory tree with an rcopy server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			logLevel.Set(slog.LevelDebug)
		}
		return loadConfigIfExists(cmd)
	},
}

var clientCmd = &cobra.Command{
	Use:   "client SRC HOST[:PORT]",
	Short: "Copy SRC and everything below it to the server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := newConfig()
		if err != nil {
			return err
		}
		startTime := time.Now()
		defer func() { slog.Debug("done", "duration", time.Since(startTime)) }()
		return runClient(cmd.Context(), cfg, args[0], args[1])
	},
}

var serverCmd = &cobra.Command{
	Use:   "server PATH_PREFIX",
	Short: "Serve PATH_PREFIX/sandbox/dest as the destination of every client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := newConfig()
		if err != nil {
			return err
		}
		return runServer(cmd.Context(), cfg, args[0])
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache PATH_PREFIX",
	Short: "List the fingerprint cache of the server serving PATH_PREFIX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := newConfig()
		if err != nil {
			return err
		}
		return listCache(cmd.OutOrStdout(), cfg, args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default ./config.toml)")
	rootCmd.PersistentFlags().IntP("port", "p", 0, "server port")
	rootCmd.PersistentFlags().String("fingerprint", "", "content fingerprint: xor or md4")
	rootCmd.PersistentFlags().Int("chunk-size", 0, "transfer unit in bytes")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every request")
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("fingerprint", rootCmd.PersistentFlags().Lookup("fingerprint"))
	viper.BindPFlag("chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	clientCmd.Flags().Int("max-transfers", 0, "concurrent transfers")
	clientCmd.Flags().StringSlice("exclude", nil, "skip entries whose name matches this glob")
	viper.BindPFlag("client.max_transfers", clientCmd.Flags().Lookup("max-transfers"))
	viper.BindPFlag("client.exclude", clientCmd.Flags().Lookup("exclude"))

	rootCmd.AddCommand(clientCmd, serverCmd, cacheCmd)
}

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		stop()
		os.Exit(1)
	}
}
