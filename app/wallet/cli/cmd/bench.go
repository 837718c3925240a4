package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var transactions int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare the serial chain with the shards on the node",
	Run:   benchRun,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVarP(&transactions, "transactions", "x", 10, "Transactions mined in each mode.")
}

func benchRun(cmd *cobra.Command, args []string) {
	data, err := json.Marshal(map[string]int{"transactions": transactions})
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/bench", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var result struct {
		SerialTime      string  `json:"serialTime"`
		ShardedTime     string  `json:"shardedTime"`
		Shards          int     `json:"shards"`
		Miners          int     `json:"miners"`
		SerialAttempts  uint64  `json:"serialAttempts"`
		ShardedAttempts uint64  `json:"shardedAttempts"`
		Speedup         float64 `json:"speedup"`
		Error           string  `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}

	if result.Error != "" {
		log.Fatal(result.Error)
	}

	fmt.Printf("Serial POC: %s (%d miners, %d attempts)\n\n", result.SerialTime, result.Miners, result.SerialAttempts)
	fmt.Printf("Sharding POC: %s (%d shards, %d attempts, %.2fx)\n", result.ShardedTime, result.Shards, result.ShardedAttempts, result.Speedup)
}
