package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"onchainblackjack/internal/codec"
	"onchainblackjack/internal/randomness"
	"onchainblackjack/internal/state"
)

func txCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Build transactions offline",
	}
	cmd.AddCommand(txSignCmd(v))
	return cmd
}

func txSignCmd(v *viper.Viper) *cobra.Command {
	var (
		typ, value, keyName, signer string
		nonce                       uint64
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a tx envelope and print it as JSON",
		Example: `ocbd tx sign --key alice --nonce 1 --type blackjack/start --value '{"player":"alice"}'` + "\n" +
			`ocbd tx sign --key alice --nonce 2 --type blackjack/hit --value '{"player":"alice","sessionIndex":0}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !json.Valid([]byte(value)) {
				return fmt.Errorf("--value is not valid JSON")
			}
			k, err := loadKey(home(v), keyName)
			if err != nil {
				return err
			}
			if signer == "" {
				signer = k.Name
			}
			bz, err := codec.NewSignedTx(typ, json.RawMessage(value), nonce, signer, k.PrivKey)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return err
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "tx type, e.g. blackjack/start")
	cmd.Flags().StringVar(&value, "value", "{}", "tx value as JSON")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "signer nonce (must exceed the last accepted one)")
	cmd.Flags().StringVar(&keyName, "key", "", "local key name")
	cmd.Flags().StringVar(&signer, "signer", "", "signer account (defaults to the key name)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("nonce")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func vrfCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vrf",
		Short: "House VRF helpers",
	}
	cmd.AddCommand(vrfProveCmd(v))
	return cmd
}

func vrfProveCmd(v *viper.Viper) *cobra.Command {
	var (
		keyName, chainID, player, action string
		session                          uint64
		step                             uint32
	)
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Produce the vrfProof revealing a pending game action",
		Long: "Step and action come from the session's pending entry: step is\n" +
			"`pending.step` and action is `revealAction` in the session query.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !validRevealAction(action) {
				return fmt.Errorf("unknown action %q", action)
			}
			k, err := loadKey(home(v), keyName)
			if err != nil {
				return err
			}
			vk, err := k.vrfKey()
			if err != nil {
				return err
			}
			_, proof, err := vk.Prove(randomness.VRFInput(chainID, player, session, step, action))
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"vrfProof": base64.StdEncoding.EncodeToString(proof),
			})
		},
	}
	cmd.Flags().StringVar(&keyName, "key", "", "local key name holding the house VRF key")
	cmd.Flags().StringVar(&chainID, "chain-id", "", "chain id")
	cmd.Flags().StringVar(&player, "player", "", "player account")
	cmd.Flags().Uint64Var(&session, "session", 0, "session index")
	cmd.Flags().Uint32Var(&step, "step", 0, "session action counter when the action was requested")
	cmd.Flags().StringVar(&action, "action", "", "pending action: start, start+stand, hit, double or stand")
	for _, f := range []string{"key", "chain-id", "player", "action"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func validRevealAction(action string) bool {
	switch action {
	case state.ActionStart, state.ActionHit, state.ActionDouble, state.ActionStand:
		return true
	}
	return action == state.PendingAction{Kind: state.ActionStart, InitialAction: true}.Label()
}
