// Package database handles the in memory ledger of account information along
// with the blocks and transactions that make up a chain.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// Set of errors returned by the ledger.
var (
	ErrNotFound          = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Database manages the accounts that belong to a single chain. It's the
// ledger of balances and nonces.
type Database struct {
	mu       sync.RWMutex
	accounts map[AccountID]Account
	order    []AccountID
}

// New constructs a new database from the set of accounts. The order of the
// accounts is kept for display.
func New(accounts []Account) (*Database, error) {
	db := Database{
		accounts: make(map[AccountID]Account, len(accounts)),
		order:    make([]AccountID, 0, len(accounts)),
	}

	for _, account := range accounts {
		if !account.AccountID.IsAccountID() {
			return nil, fmt.Errorf("account %q: invalid account format", account.AccountID)
		}
		if _, exists := db.accounts[account.AccountID]; exists {
			return nil, fmt.Errorf("account %q: duplicate account", account.AccountID)
		}

		db.accounts[account.AccountID] = account
		db.order = append(db.order, account.AccountID)
	}

	return &db, nil
}

// Query returns a copy of the specified account.
func (db *Database) Query(accountID AccountID) (Account, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	account, exists := db.accounts[accountID]
	if !exists {
		return Account{}, fmt.Errorf("%s: %w", accountID, ErrNotFound)
	}

	return account, nil
}

// CanPay returns true if both accounts exist and they aren't the same account.
func (db *Database) CanPay(payer AccountID, payee AccountID) bool {
	if payer == payee {
		return false
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	_, payerExists := db.accounts[payer]
	_, payeeExists := db.accounts[payee]

	return payerExists && payeeExists
}

// Debit removes the amount from the balance of the specified account.
func (db *Database) Debit(accountID AccountID, amount int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	account, err := db.debit(accountID, amount)
	if err != nil {
		return err
	}

	db.accounts[accountID] = account
	return nil
}

// AdvanceNonce increments the nonce of the specified account by one.
func (db *Database) AdvanceNonce(accountID AccountID) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	account, exists := db.accounts[accountID]
	if !exists {
		return fmt.Errorf("%s: %w", accountID, ErrNotFound)
	}

	account.Nonce++
	db.accounts[accountID] = account

	return nil
}

// ApplyTransaction performs the eager debit for an accepted transaction. The
// payer is debited and its nonce advanced as a single change.
func (db *Database) ApplyTransaction(tx Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	account, err := db.debit(tx.PayerID, tx.Amount)
	if err != nil {
		return err
	}

	account.Nonce++
	db.accounts[tx.PayerID] = account

	return nil
}

// Copy makes a copy of the current accounts in allocation order.
func (db *Database) Copy() []Account {
	db.mu.RLock()
	defer db.mu.RUnlock()

	accounts := make([]Account, 0, len(db.order))
	for _, accountID := range db.order {
		accounts = append(accounts, db.accounts[accountID])
	}

	return accounts
}

// Count returns the number of accounts in the database.
func (db *Database) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.order)
}

// =============================================================================

// debit calculates the account after the debit. The caller must hold the lock.
func (db *Database) debit(accountID AccountID, amount int64) (Account, error) {
	account, exists := db.accounts[accountID]
	if !exists {
		return Account{}, fmt.Errorf("%s: %w", accountID, ErrNotFound)
	}

	if amount <= 0 {
		return Account{}, fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}

	if uint64(amount) > account.Balance {
		return Account{}, fmt.Errorf("bal %d, needed %d: %w", account.Balance, amount, ErrInsufficientFunds)
	}

	account.Balance -= uint64(amount)
	return account, nil
}
