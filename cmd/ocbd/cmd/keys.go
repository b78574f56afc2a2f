package cmd

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"onchainblackjack/internal/vrf"
)

// keyFile is the on-disk layout of <home>/keys/<name>.json. The name doubles
// as the account id.
type keyFile struct {
	Name      string `json:"name"`
	PubKey    []byte `json:"pubKey"`
	PrivKey   []byte `json:"privKey"`
	VRFKey    []byte `json:"vrfKey,omitempty"`
	VRFPubKey []byte `json:"vrfPubKey,omitempty"`
}

func keyPath(home, name string) string {
	return filepath.Join(home, "keys", name+".json")
}

func loadKey(home, name string) (*keyFile, error) {
	bz, err := os.ReadFile(keyPath(home, name))
	if err != nil {
		return nil, fmt.Errorf("load key %q: %w", name, err)
	}
	var k keyFile
	if err := json.Unmarshal(bz, &k); err != nil {
		return nil, fmt.Errorf("decode key %q: %w", name, err)
	}
	if len(k.PrivKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("key %q: privKey must be %d bytes", name, ed25519.PrivateKeySize)
	}
	return &k, nil
}

func (k *keyFile) vrfKey() (*vrf.PrivateKey, error) {
	if len(k.VRFKey) == 0 {
		return nil, fmt.Errorf("key %q has no vrf key (re-create it with --vrf)", k.Name)
	}
	return vrf.PrivateKeyFromBytes(k.VRFKey)
}

func keysCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage local signing keys",
	}
	cmd.AddCommand(keysAddCmd(v), keysShowCmd(v))
	return cmd
}

func keysAddCmd(v *viper.Viper) *cobra.Command {
	var withVRF bool
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Generate an ed25519 account key (and optionally a house VRF key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path := keyPath(home(v), name)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("key %q already exists at %s", name, path)
			}

			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			k := keyFile{Name: name, PubKey: pub, PrivKey: priv}
			if withVRF {
				vk, err := vrf.GenerateKey(rand.Reader)
				if err != nil {
					return err
				}
				k.VRFKey = vk.Bytes()
				k.VRFPubKey = vk.PublicKey()
			}

			bz, err := json.MarshalIndent(k, "", "  ")
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(path, bz, 0o600); err != nil {
				return err
			}
			return printPublic(cmd, &k)
		},
	}
	cmd.Flags().BoolVar(&withVRF, "vrf", false, "also generate a house VRF key")
	return cmd
}

func keysShowCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print the public half of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := loadKey(home(v), args[0])
			if err != nil {
				return err
			}
			return printPublic(cmd, k)
		},
	}
}

func printPublic(cmd *cobra.Command, k *keyFile) error {
	out := map[string]string{
		"name":   k.Name,
		"pubKey": base64.StdEncoding.EncodeToString(k.PubKey),
	}
	if len(k.VRFPubKey) > 0 {
		out["vrfPubKey"] = base64.StdEncoding.EncodeToString(k.VRFPubKey)
	}
	return printJSON(cmd, out)
}

func printJSON(cmd *cobra.Command, v any) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}
