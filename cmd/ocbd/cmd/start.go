package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cometbft/cometbft/abci/server"

	"onchainblackjack/internal/app"
	"onchainblackjack/internal/config"
	"onchainblackjack/internal/state"
)

func startCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the blackjack ABCI application",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			for key, flag := range map[string]string{
				config.KeyABCIAddr:      "addr",
				config.KeyABCITransport: "transport",
				config.KeyDBBackend:     "db-backend",
				config.KeyLogLevel:      "log-level",
				config.KeyLogFormat:     "log-format",
			} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger, err := cfg.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			store, err := state.OpenStore(cfg.Home, dbm.BackendType(cfg.DBBackend))
			if err != nil {
				return fmt.Errorf("open state db: %w", err)
			}
			defer func() { _ = store.Close() }()

			a, err := app.New(store, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			srv, err := server.NewServer(cfg.ABCIAddr, cfg.ABCITransport, a)
			if err != nil {
				return fmt.Errorf("start abci server: %w", err)
			}
			if err := srv.Start(); err != nil {
				return fmt.Errorf("abci server start: %w", err)
			}
			defer func() { _ = srv.Stop() }()
			logger.Info("abci server listening", "addr", cfg.ABCIAddr, "transport", cfg.ABCITransport, "home", cfg.Home)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			logger.Info("shutting down", "signal", sig.String())
			return nil
		},
	}
	cmd.Flags().String("addr", config.DefaultABCIAddr, "ABCI listen address")
	cmd.Flags().String("transport", config.DefaultABCITransport, "ABCI transport (socket|grpc)")
	cmd.Flags().String("db-backend", config.DefaultDBBackend, "state database backend (goleveldb|memdb)")
	cmd.Flags().String("log-level", config.DefaultLogLevel, "log level (debug|info|warn|error|disabled)")
	cmd.Flags().String("log-format", config.DefaultLogFormat, "log format (plain|json)")
	return cmd
}
