package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CipherCoRetech/SypherLang/pkg/crypto"
	"github.com/CipherCoRetech/SypherLang/pkg/db"
	"github.com/CipherCoRetech/SypherLang/pkg/keystore"
	"github.com/CipherCoRetech/SypherLang/pkg/network"
	"github.com/CipherCoRetech/SypherLang/pkg/node"
	"github.com/CipherCoRetech/SypherLang/pkg/rpc"
	"github.com/CipherCoRetech/SypherLang/pkg/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ledger node",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

		dir := viper.GetString("data-dir")
		database, err := db.Open(db.Backend(viper.GetString("db")), filepath.Join(dir, "chaindata"))
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()

		signer, address, err := loadSigner()
		if err != nil {
			return err
		}

		peers := network.New(network.Config{})
		for _, addr := range viper.GetStringSlice("peers") {
			peers.Register(addr)
		}

		n, err := node.New(node.Config{
			Address:         address,
			Difficulty:      viper.GetInt("difficulty"),
			ResolveInterval: viper.GetDuration("resolve-interval"),
		}, peers, store.New(database), signer)
		if err != nil {
			return fmt.Errorf("create node: %w", err)
		}
		n.Start()

		server := rpc.NewServer(viper.GetString("rpc"), n)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start rpc server: %w", err)
		}
		slog.Info("node started", "address", address, "rpc", viper.GetString("rpc"), "peers", len(peers.Peers()))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("rpc shutdown failed", "err", err)
		}
		n.Stop()
		return nil
	},
}

// loadSigner builds the node's signer from the keystore when a key and
// password are available, and falls back to the no-op signer otherwise.
func loadSigner() (crypto.Signer, string, error) {
	ks := keystore.New(keystoreDir())
	addresses, err := ks.Addresses()
	if err != nil {
		return nil, "", fmt.Errorf("read keystore: %w", err)
	}

	configured := viper.GetString("address")
	if len(addresses) == 0 || password == "" {
		if configured == "" {
			host, _ := os.Hostname()
			configured = host
		}
		if len(addresses) > 0 {
			slog.Warn("keystore present but no password given, broadcasts will be unsigned")
		}
		return crypto.NewNoopSigner(configured), configured, nil
	}

	address := configured
	if address == "" {
		address = addresses[0]
	}
	key, err := ks.Load(address, password)
	if err != nil {
		return nil, "", fmt.Errorf("unlock key %s: %w", address, err)
	}
	signer, err := crypto.NewSecp256k1Signer(key)
	if err != nil {
		return nil, "", err
	}
	return signer, signer.Address(), nil
}
