package database_test

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/shardlab/powshard/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func newDB(t *testing.T) *database.Database {
	db, err := database.New([]database.Account{
		database.NewAccount("Alice", 100, []byte("alice-key"), 0),
		database.NewAccount("Bob", 100, []byte("bob-key"), 0),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %v", failed, err)
	}

	return db
}

func Test_Ledger(t *testing.T) {
	type table struct {
		name    string
		payer   database.AccountID
		amount  int64
		err     error
		balance uint64
		nonce   uint64
	}

	tt := []table{
		{name: "basic", payer: "Alice", amount: 1, balance: 99, nonce: 1},
		{name: "all", payer: "Alice", amount: 100, balance: 0, nonce: 1},
		{name: "overspend", payer: "Alice", amount: 150, err: database.ErrInsufficientFunds, balance: 100},
		{name: "zero", payer: "Alice", amount: 0, err: database.ErrInvalidAmount, balance: 100},
		{name: "negative", payer: "Alice", amount: -5, err: database.ErrInvalidAmount, balance: 100},
		{name: "unknown", payer: "Zed", amount: 1, err: database.ErrNotFound},
	}

	t.Log("Given the need to apply transactions to the ledger.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, tst.name)
			{
				f := func(t *testing.T) {
					db := newDB(t)

					tx := database.NewTx(tst.amount, tst.payer, nil, "Bob", 0)
					err := db.ApplyTransaction(tx)
					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould get the expected error: got %v, exp %v", failed, testID, err, tst.err)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected error.", success, testID)

					if tst.err == database.ErrNotFound {
						return
					}

					account, err := db.Query(tst.payer)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to query the payer: %v", failed, testID, err)
					}

					if account.Balance != tst.balance || account.Nonce != tst.nonce {
						t.Logf("\t%s\tTest %d:\tgot: %d/%d", failed, testID, account.Balance, account.Nonce)
						t.Logf("\t%s\tTest %d:\texp: %d/%d", failed, testID, tst.balance, tst.nonce)
						t.Fatalf("\t%s\tTest %d:\tShould have the correct balance and nonce.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have the correct balance and nonce.", success, testID)

					payee, _ := db.Query("Bob")
					if payee.Balance != 100 || payee.Nonce != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould not change the payee.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not change the payee.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_CanPay(t *testing.T) {
	db := newDB(t)

	t.Log("Given the need to check who can pay who.")
	{
		if !db.CanPay("Alice", "Bob") {
			t.Fatalf("\t%s\tShould allow two known accounts.", failed)
		}
		t.Logf("\t%s\tShould allow two known accounts.", success)

		if db.CanPay("Alice", "Alice") {
			t.Fatalf("\t%s\tShould not allow self payment.", failed)
		}
		t.Logf("\t%s\tShould not allow self payment.", success)

		if db.CanPay("Alice", "Zed") || db.CanPay("Zed", "Bob") {
			t.Fatalf("\t%s\tShould not allow unknown accounts.", failed)
		}
		t.Logf("\t%s\tShould not allow unknown accounts.", success)
	}
}

func Test_DebitAndNonce(t *testing.T) {
	db := newDB(t)

	t.Log("Given the need to debit and advance nonces separately.")
	{
		if err := db.Debit("Bob", 40); err != nil {
			t.Fatalf("\t%s\tShould be able to debit: %v", failed, err)
		}
		if err := db.AdvanceNonce("Bob"); err != nil {
			t.Fatalf("\t%s\tShould be able to advance the nonce: %v", failed, err)
		}

		bob, _ := db.Query("Bob")
		if bob.Balance != 60 || bob.Nonce != 1 {
			t.Fatalf("\t%s\tShould have balance 60 and nonce 1: got %d/%d", failed, bob.Balance, bob.Nonce)
		}
		t.Logf("\t%s\tShould have balance 60 and nonce 1.", success)

		if err := db.Debit("Bob", 61); !errors.Is(err, database.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould not allow an overdraft: %v", failed, err)
		}
		t.Logf("\t%s\tShould not allow an overdraft.", success)

		accounts := db.Copy()
		if len(accounts) != 2 || accounts[0].AccountID != "Alice" || accounts[1].AccountID != "Bob" {
			t.Fatalf("\t%s\tShould copy accounts in allocation order.", failed)
		}
		t.Logf("\t%s\tShould copy accounts in allocation order.", success)
	}
}

func Test_DuplicateAccount(t *testing.T) {
	_, err := database.New([]database.Account{
		database.NewAccount("Alice", 100, nil, 0),
		database.NewAccount("Alice", 100, nil, 0),
	})
	if err == nil {
		t.Fatalf("\t%s\tShould reject duplicate accounts.", failed)
	}
	t.Logf("\t%s\tShould reject duplicate accounts.", success)

	if _, err := database.ToAccountID("a:b"); err == nil {
		t.Fatalf("\t%s\tShould reject account ids with a colon.", failed)
	}
	t.Logf("\t%s\tShould reject account ids with a colon.", success)
}

// =============================================================================

func Test_ParseTx(t *testing.T) {
	type table struct {
		name string
		str  string
		err  error
	}

	tt := []table{
		{name: "valid", str: "1:Alice:0a0b:Bob:0"},
		{name: "negative", str: "-3:Alice:0a0b:Bob:0"},
		{name: "fields", str: "1:Alice:0a0b:Bob", err: database.ErrMalformedTransaction},
		{name: "extra", str: "1:Alice:0a0b:Bob:0:1", err: database.ErrMalformedTransaction},
		{name: "hex", str: "1:Alice:zz:Bob:0", err: database.ErrMalformedTransaction},
		{name: "amount", str: "one:Alice:0a0b:Bob:0", err: database.ErrMalformedTransaction},
		{name: "nonce", str: "1:Alice:0a0b:Bob:x", err: database.ErrMalformedTransaction},
	}

	t.Log("Given the need to parse the transaction wire format.")
	{
		for testID, tst := range tt {
			tx, err := database.ParseTx(tst.str)
			if !errors.Is(err, tst.err) {
				t.Fatalf("\t%s\tTest %d:\tShould get the expected error for %q: got %v", failed, testID, tst.str, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get the expected error for %q.", success, testID, tst.str)

			if err == nil && tx.String() != tst.str {
				t.Fatalf("\t%s\tTest %d:\tShould keep the original string: %s", failed, testID, tx.String())
			}
		}
	}
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	exp := sha256.Sum256([]byte("Genesis"))

	gen := database.Genesis()
	if string(gen.Hash) != string(exp[:]) {
		t.Fatalf("\t%s\tShould have a genesis hash of SHA256(\"Genesis\").", failed)
	}
	t.Logf("\t%s\tShould have a genesis hash of SHA256(\"Genesis\").", success)
}

func Test_ChainAppend(t *testing.T) {
	const difficulty = 1

	chain := database.NewChain(difficulty, nil)
	prev := chain.LatestBlock()

	t.Log("Given the need to only append solved blocks.")
	{
		var solved, unsolved database.Block
		for i := 0; solved.Hash == nil || unsolved.Hash == nil; i++ {
			b := database.NewBlock(prev.Hash, []byte("1:Alice:00:Bob:0"), []byte{byte(i), byte(i >> 8), byte(i >> 16)})
			switch database.IsHashSolved(difficulty, b.Hash) {
			case true:
				if solved.Hash == nil {
					solved = b
				}
			default:
				if unsolved.Hash == nil {
					unsolved = b
				}
			}
		}

		if err := chain.Append(unsolved); !errors.Is(err, database.ErrBlockNotSolved) {
			t.Fatalf("\t%s\tShould reject an unsolved block: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an unsolved block.", success)

		forged := solved
		forged.Payload = []byte("1000:Alice:00:Bob:0")
		if err := chain.Append(forged); !errors.Is(err, database.ErrBlockHash) {
			t.Fatalf("\t%s\tShould reject a block whose hash doesn't match: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a block whose hash doesn't match.", success)

		if err := chain.Append(solved); err != nil {
			t.Fatalf("\t%s\tShould append a solved block: %v", failed, err)
		}
		t.Logf("\t%s\tShould append a solved block.", success)

		if err := chain.Append(solved); !errors.Is(err, database.ErrBlockParentHash) {
			t.Fatalf("\t%s\tShould reject a block that doesn't link to the latest block: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a block that doesn't link to the latest block.", success)

		if chain.Length() != 2 {
			t.Fatalf("\t%s\tShould have two blocks: got %d", failed, chain.Length())
		}
		t.Logf("\t%s\tShould have two blocks.", success)

		if err := chain.Validate(); err != nil {
			t.Fatalf("\t%s\tShould validate the full chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould validate the full chain.", success)
	}
}
