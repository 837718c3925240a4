// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/blockchain/signature"
	"github.com/shardlab/powshard/foundation/wallets"
)

// Genesis writes the default parameters to the specified file so they can
// be edited and handed to a node.
//
//	admin genesis zblock/genesis.json
func Genesis(args []string) error {
	path := "zblock/genesis.json"
	if len(args) > 2 {
		path = args[2]
	}

	data, err := json.MarshalIndent(genesis.Default(), "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	fmt.Println("Genesis written to", path)
	return nil
}

// GenKeys writes a private key for every account in the genesis file into
// the folder. A node started with that folder uses these keys.
//
//	admin genkeys zblock/wallets [zblock/genesis.json]
func GenKeys(args []string) error {
	folder := "zblock/wallets"
	if len(args) > 2 {
		folder = args[2]
	}

	gen := genesis.Default()
	if len(args) > 3 {
		var err error
		if gen, err = genesis.Load(args[3]); err != nil {
			return err
		}
	}

	for _, id := range gen.Accounts {
		accountID, err := database.ToAccountID(id)
		if err != nil {
			return err
		}

		pk, err := signature.GenerateKey()
		if err != nil {
			return err
		}

		w, err := wallets.New(accountID, pk)
		if err != nil {
			return err
		}

		if err := wallets.Save(folder, w); err != nil {
			return err
		}

		fmt.Printf("Account: %-10s Key: %s\n", accountID, w.PublicKeyHex()[:16])
	}

	return nil
}
