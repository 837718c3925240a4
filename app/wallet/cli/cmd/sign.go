package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	to    string
	value int64
	nonce uint64
	check bool
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print a signed transaction without sending it",
	Run:   signRun,
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().StringVarP(&to, "to", "t", "", "Account to pay.")
	signCmd.MarkFlagRequired("to")
	signCmd.Flags().Int64VarP(&value, "value", "v", 1, "Amount to send.")
	signCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce of the paying account.")
	signCmd.Flags().BoolVarP(&check, "check", "c", false, "Ask the node whether it would accept the transaction.")
	signCmd.Flags().StringVarP(&shard, "shard", "s", "", "Shard to check against, empty for the serial chain.")
}

func signRun(cmd *cobra.Command, args []string) {
	w, err := loadWallet()
	if err != nil {
		log.Fatal(err)
	}

	tx, sig, err := w.SignTx(value, database.AccountID(to), nonce)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Transaction:", tx)
	fmt.Println("Signature:  ", sig)

	if !check {
		return
	}

	data, err := json.Marshal(map[string]string{
		"transaction": tx,
		"signature":   sig,
	})
	if err != nil {
		log.Fatal(err)
	}

	path := fmt.Sprintf("%s/v1/tx/validate", url)
	if shard != "" {
		path = fmt.Sprintf("%s/v1/shards/%s/tx/validate", url, shard)
	}

	resp, err := http.Post(path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var result struct {
		Valid    bool   `json:"valid"`
		ErrorMsg string `json:"errorMsg"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}

	if result.Error != "" {
		log.Fatal(result.Error)
	}

	fmt.Println("Valid:      ", result.Valid, result.ErrorMsg)
}
