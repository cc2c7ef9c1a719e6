package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
	"github.com/CipherCoRetech/SypherLang/pkg/keystore"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage node identity keys",
}

func init() {
	keyCmd.AddCommand(keyNewCmd)
	keyCmd.AddCommand(keyListCmd)
}

var keyNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new identity key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if password == "" {
			return fmt.Errorf("--password is required")
		}
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		address, err := keystore.New(keystoreDir()).Store(key, password)
		if err != nil {
			return err
		}
		fmt.Printf("Created key: %s\n", address)
		return nil
	},
}

var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored identity keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		addresses, err := keystore.New(keystoreDir()).Addresses()
		if err != nil {
			return err
		}
		if len(addresses) == 0 {
			fmt.Println("No keys found.")
			return nil
		}
		for _, addr := range addresses {
			fmt.Println(addr)
		}
		return nil
	},
}
