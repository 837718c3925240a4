// Package validator checks submitted transactions before they are allowed
// into a mempool. Checking never changes the ledger.
package validator

import (
	"bytes"
	"crypto/rsa"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/signature"
)

// DefaultKeyCacheSize is the number of parsed public keys kept by default.
const DefaultKeyCacheSize = 256

// Set of reasons a transaction can be rejected.
var (
	ErrMalformedTransaction = database.ErrMalformedTransaction
	ErrInvalidSignature     = signature.ErrInvalidSignature
	ErrSelfPayment          = errors.New("payer and payee are the same account")
	ErrUnknownStakeholder   = errors.New("unknown stakeholder")
	ErrKeyMismatch          = errors.New("public key doesn't match the payer account")
	ErrInvalidAmount        = database.ErrInvalidAmount
	ErrNonceMismatch        = errors.New("nonce doesn't match the payer account")
	ErrInsufficientFunds    = database.ErrInsufficientFunds
)

// Ledger represents the account information a transaction is checked against.
type Ledger interface {
	Query(accountID database.AccountID) (database.Account, error)
	CanPay(payer database.AccountID, payee database.AccountID) bool
}

// Validator performs the transaction checks. Parsed public keys are cached
// since the same few participants sign most transactions.
type Validator struct {
	keys *lru.Cache
}

// New constructs a validator with a public key cache of the specified size.
func New(keyCacheSize int) (*Validator, error) {
	if keyCacheSize <= 0 {
		keyCacheSize = DefaultKeyCacheSize
	}

	keys, err := lru.New(keyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("constructing key cache: %w", err)
	}

	return &Validator{keys: keys}, nil
}

// Validate reports whether the transaction would be accepted.
func (v *Validator) Validate(txStr string, sigHex string, ledger Ledger) bool {
	_, err := v.Check(txStr, sigHex, ledger)
	return err == nil
}

// Check performs every check against the ledger and returns the parsed
// transaction. The error identifies the first check that failed.
func (v *Validator) Check(txStr string, sigHex string, ledger Ledger) (database.Tx, error) {
	tx, err := database.ParseTx(txStr)
	if err != nil {
		return database.Tx{}, err
	}

	if err := v.verifySignature(tx, sigHex); err != nil {
		return database.Tx{}, err
	}

	payer, err := validateStakeholders(tx, ledger)
	if err != nil {
		return database.Tx{}, err
	}

	if err := validateValue(tx, payer); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

// =============================================================================

// verifySignature checks the signature was produced over the exact wire
// string by the key carried inside it.
func (v *Validator) verifySignature(tx database.Tx, sigHex string) error {
	publicKey, err := v.publicKey(tx.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	return signature.Verify(tx.String(), publicKey, sigHex)
}

// publicKey returns the parsed key, using the cache when possible.
func (v *Validator) publicKey(data []byte) (*rsa.PublicKey, error) {
	if cached, exists := v.keys.Get(string(data)); exists {
		if key, ok := cached.(*rsa.PublicKey); ok {
			return key, nil
		}
	}

	key, err := signature.DecodePublicKey(data)
	if err != nil {
		return nil, err
	}

	v.keys.Add(string(data), key)
	return key, nil
}

// validateStakeholders checks both parties are known and the key belongs to
// the payer.
func validateStakeholders(tx database.Tx, ledger Ledger) (database.Account, error) {
	if tx.PayerID == tx.PayeeID {
		return database.Account{}, fmt.Errorf("%w: %s", ErrSelfPayment, tx.PayerID)
	}

	if !ledger.CanPay(tx.PayerID, tx.PayeeID) {
		return database.Account{}, fmt.Errorf("%w: from %s, to %s", ErrUnknownStakeholder, tx.PayerID, tx.PayeeID)
	}

	payer, err := ledger.Query(tx.PayerID)
	if err != nil {
		return database.Account{}, fmt.Errorf("%w: %w", ErrUnknownStakeholder, err)
	}

	if !bytes.Equal(payer.PublicKey, tx.PublicKey) {
		return database.Account{}, fmt.Errorf("%w: %s", ErrKeyMismatch, tx.PayerID)
	}

	return payer, nil
}

// validateValue checks the amount and nonce against the payer account.
func validateValue(tx database.Tx, payer database.Account) error {
	if tx.Amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, tx.Amount)
	}

	if tx.Nonce != payer.Nonce {
		return fmt.Errorf("%w: current %d, provided %d", ErrNonceMismatch, payer.Nonce, tx.Nonce)
	}

	if uint64(tx.Amount) > payer.Balance {
		return fmt.Errorf("%w: bal %d, needed %d", ErrInsufficientFunds, payer.Balance, tx.Amount)
	}

	return nil
}
