package cmd

import (
	"fmt"
	"log"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/signature"
	"github.com/shardlab/powshard/foundation/wallets"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	privateKey, err := signature.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	w, err := wallets.New(database.AccountID(accountName), privateKey)
	if err != nil {
		log.Fatal(err)
	}

	if err := wallets.Save(walletPath, w); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Key written to", getPrivateKeyPath())
}
