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

var autoNonce bool

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account to pay.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.Flags().Int64VarP(&value, "value", "v", 1, "Amount to send.")
	sendCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce of the paying account.")
	sendCmd.Flags().BoolVar(&autoNonce, "auto-nonce", true, "Ask the node for the current nonce.")
	sendCmd.Flags().StringVarP(&shard, "shard", "s", "", "Shard to submit to, empty for the serial chain.")
}

func sendRun(cmd *cobra.Command, args []string) {
	w, err := loadWallet()
	if err != nil {
		log.Fatal(err)
	}

	if autoNonce && !cmd.Flags().Changed("nonce") {
		acc, err := queryAccount(string(w.AccountID), shard)
		if err != nil {
			log.Fatal(err)
		}
		nonce = acc.Nonce
	}

	tx, sig, err := w.SignTx(value, database.AccountID(to), nonce)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(map[string]string{
		"transaction": tx,
		"signature":   sig,
	})
	if err != nil {
		log.Fatal(err)
	}

	path := fmt.Sprintf("%s/v1/tx/submit", url)
	if shard != "" {
		path = fmt.Sprintf("%s/v1/shards/%s/tx/submit", url, shard)
	}

	resp, err := http.Post(path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
