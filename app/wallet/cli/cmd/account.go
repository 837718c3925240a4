package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print account for the specific wallet",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) {
	w, err := loadWallet()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Account:   ", w.AccountID)
	fmt.Println("Public Key:", w.PublicKeyHex())
}
