package commands_test

import (
	"path/filepath"
	"testing"

	"github.com/shardlab/powshard/app/tooling/admin/commands"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/wallets"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_GenesisAndKeys(t *testing.T) {
	dir := t.TempDir()
	genPath := filepath.Join(dir, "genesis.json")
	keyPath := filepath.Join(dir, "wallets")

	t.Log("Given the need to prepare files for a node.")
	{
		if err := commands.Genesis([]string{"admin", "genesis", genPath}); err != nil {
			t.Fatalf("\t%s\tShould be able to write the genesis file: %v", failed, err)
		}

		gen, err := genesis.Load(genPath)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the written genesis file: %v", failed, err)
		}
		if gen.Difficulty != genesis.Default().Difficulty || len(gen.Accounts) != len(genesis.Default().Accounts) {
			t.Fatalf("\t%s\tShould write the default parameters.", failed)
		}
		t.Logf("\t%s\tShould write the default parameters.", success)

		if err := commands.GenKeys([]string{"admin", "genkeys", keyPath, genPath}); err != nil {
			t.Fatalf("\t%s\tShould be able to generate keys: %v", failed, err)
		}

		ws, err := wallets.Load(keyPath)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the generated keys: %v", failed, err)
		}
		if ws.Count() != len(gen.Accounts) {
			t.Fatalf("\t%s\tShould have a key for every account: got %d", failed, ws.Count())
		}
		t.Logf("\t%s\tShould have a key for every account.", success)
	}
}
