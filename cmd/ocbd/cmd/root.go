package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"onchainblackjack/internal/config"
)

const flagHome = "home"

// NewRootCmd creates the ocbd root command. It is called once in main.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:           "ocbd",
		Short:         "OnChainBlackjack ABCI daemon",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().String(flagHome, config.DefaultHome, "node home directory")
	if err := v.BindPFlag(config.KeyHome, rootCmd.PersistentFlags().Lookup(flagHome)); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		startCmd(v),
		initCmd(v),
		keysCmd(v),
		txCmd(v),
		vrfCmd(v),
	)
	return rootCmd
}

func home(v *viper.Viper) string {
	return v.GetString(config.KeyHome)
}
