package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type account struct {
	AccountID string `json:"id"`
	Balance   uint64 `json:"balance"`
	Nonce     uint64 `json:"nonce"`
	ShardID   int    `json:"shard"`
}

var shard string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&shard, "shard", "s", "", "Shard to query, empty for the serial chain.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	acc, err := queryAccount(accountName, shard)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Account:", acc.AccountID)
	fmt.Println("Balance:    ", acc.Balance)
	fmt.Println("Nonce:      ", acc.Nonce)
	fmt.Println("Shard:      ", acc.ShardID)
}

// queryAccount asks the node for the account on the serial chain or a shard.
func queryAccount(accountID string, shard string) (account, error) {
	path := fmt.Sprintf("%s/v1/accounts/list", url)
	if shard != "" {
		path = fmt.Sprintf("%s/v1/shards/%s/accounts/list", url, shard)
	}

	resp, err := http.Get(path)
	if err != nil {
		return account{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return account{}, fmt.Errorf("node returned %s", resp.Status)
	}

	var accounts []account
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return account{}, err
	}

	for _, acc := range accounts {
		if acc.AccountID == accountID {
			return acc, nil
		}
	}

	return account{}, fmt.Errorf("account %q not found", accountID)
}
