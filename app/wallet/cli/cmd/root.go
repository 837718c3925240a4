// Package cmd contains wallet app
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/signature"
	"github.com/shardlab/powshard/foundation/wallets"
	"github.com/spf13/cobra"
)

var (
	accountName string
	walletPath  string
	url         string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Sign and send transactions to a sharded ledger node",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "Alice", "Account id, also the key file name.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/wallets/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func getPrivateKeyPath() string {
	name := strings.TrimSuffix(accountName, wallets.KeyExtension)
	return filepath.Join(walletPath, name+wallets.KeyExtension)
}

// loadWallet reads the key file for the configured account.
func loadWallet() (wallets.Wallet, error) {
	data, err := os.ReadFile(getPrivateKeyPath())
	if err != nil {
		return wallets.Wallet{}, err
	}

	pk, err := signature.DecodePrivateKey(data)
	if err != nil {
		return wallets.Wallet{}, err
	}

	return wallets.New(database.AccountID(strings.TrimSuffix(accountName, wallets.KeyExtension)), pk)
}
