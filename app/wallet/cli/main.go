// This program provides a wallet for signing and sending transactions to a
// node and for running the serial against sharded benchmark.
package main

import "github.com/shardlab/powshard/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
