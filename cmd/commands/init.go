package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
	"github.com/CipherCoRetech/SypherLang/pkg/keystore"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the data directory and node identity key",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := viper.GetString("data-dir")
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}

		ks := keystore.New(keystoreDir())
		addresses, err := ks.Addresses()
		if err != nil {
			return err
		}
		if len(addresses) > 0 {
			fmt.Printf("Keystore already holds %d key(s); first address: %s\n", len(addresses), addresses[0])
			return nil
		}
		if password == "" {
			return fmt.Errorf("--password is required to create the node identity key")
		}

		key, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		address, err := ks.Store(key, password)
		if err != nil {
			return fmt.Errorf("store key: %w", err)
		}

		configPath := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			config := fmt.Sprintf("db: %s\nrpc: %s\naddress: %s\ndifficulty: %d\n",
				viper.GetString("db"), viper.GetString("rpc"), address, viper.GetInt("difficulty"))
			if err := os.WriteFile(configPath, []byte(config), 0o600); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
		}

		fmt.Printf("Initialized %s\nNode address: %s\n", dir, address)
		return nil
	},
}
