package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"onchainblackjack/internal/app"
	"onchainblackjack/internal/config"
)

func genesisPath(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

func initCmd(v *viper.Viper) *cobra.Command {
	var (
		owner string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default genesis app state and app.toml under home",
		Long: "Writes <home>/config/genesis.json (the app_state for CometBFT's genesis) and\n" +
			"<home>/config/app.toml. When a local key named after the owner exists, its\n" +
			"public key is registered and its VRF key, if any, becomes the house VRF key.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := home(v)
			if _, err := os.Stat(genesisPath(dir)); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", genesisPath(dir))
			}

			g := app.DefaultGenesis(owner)
			if k, err := loadKey(dir, owner); err == nil {
				g.Accounts = append(g.Accounts, app.GenesisAccount{Account: owner, PubKey: k.PubKey})
				g.VRFPubKey = k.VRFPubKey
			}
			if err := g.Validate(); err != nil {
				return err
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
				return err
			}
			bz, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(genesisPath(dir), bz, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(config.ConfigFile(dir), []byte(cfg.AppTOML()), 0o644); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", genesisPath(dir), config.ConfigFile(dir))
			return err
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "house", "game owner and token minter account")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}
