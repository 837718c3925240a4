package database

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTransaction is returned when a transaction string doesn't
// follow the wire format.
var ErrMalformedTransaction = errors.New("malformed transaction")

// txFields is the number of colon delimited fields in the wire format.
const txFields = 5

// =============================================================================

// Tx is the transactional information between two parties. The wire format is
// <AMOUNT>:<PAYER_ID>:<PAYER_PUBLIC_KEY_HEX>:<PAYEE_ID>:<NONCE>.
type Tx struct {
	Amount    int64
	PayerID   AccountID
	PublicKey []byte
	PayeeID   AccountID
	Nonce     uint64

	raw string
}

// NewTx constructs a new transaction.
func NewTx(amount int64, payerID AccountID, publicKey []byte, payeeID AccountID, nonce uint64) Tx {
	return Tx{
		Amount:    amount,
		PayerID:   payerID,
		PublicKey: publicKey,
		PayeeID:   payeeID,
		Nonce:     nonce,
	}
}

// ParseTx converts the wire format into a transaction. The string is kept so
// the exact bytes that were signed become the block payload.
func ParseTx(s string) (Tx, error) {
	fields := strings.Split(s, ":")
	if len(fields) != txFields {
		return Tx{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedTransaction, txFields, len(fields))
	}

	amount, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Tx{}, fmt.Errorf("%w: amount: %w", ErrMalformedTransaction, err)
	}

	publicKey, err := hex.DecodeString(fields[2])
	if err != nil {
		return Tx{}, fmt.Errorf("%w: public key: %w", ErrMalformedTransaction, err)
	}

	nonce, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return Tx{}, fmt.Errorf("%w: nonce: %w", ErrMalformedTransaction, err)
	}

	tx := Tx{
		Amount:    amount,
		PayerID:   AccountID(fields[1]),
		PublicKey: publicKey,
		PayeeID:   AccountID(fields[3]),
		Nonce:     nonce,
		raw:       s,
	}

	return tx, nil
}

// String implements the fmt.Stringer interface and returns the wire format.
func (tx Tx) String() string {
	if tx.raw != "" {
		return tx.raw
	}

	return fmt.Sprintf("%d:%s:%s:%s:%d", tx.Amount, tx.PayerID, hex.EncodeToString(tx.PublicKey), tx.PayeeID, tx.Nonce)
}

// Bytes returns the wire format as it's recorded inside a block.
func (tx Tx) Bytes() []byte {
	return []byte(tx.String())
}

// Key returns a short identity for the transaction used in logging.
func (tx Tx) Key() string {
	return fmt.Sprintf("%s:%d", tx.PayerID, tx.Nonce)
}
