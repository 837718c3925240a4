package database

import (
	"encoding/hex"
	"errors"
)

// Account represents information stored in the database for an individual account.
type Account struct {
	AccountID AccountID
	Balance   uint64
	PublicKey []byte
	ShardID   int
	Nonce     uint64
}

// NewAccount constructs a new account value for use.
func NewAccount(accountID AccountID, balance uint64, publicKey []byte, shardID int) Account {
	pk := make([]byte, len(publicKey))
	copy(pk, publicKey)

	return Account{
		AccountID: accountID,
		Balance:   balance,
		PublicKey: pk,
		ShardID:   shardID,
	}
}

// PublicKeyHex returns the public key in the form used by the wire format.
func (a Account) PublicKeyHex() string {
	return hex.EncodeToString(a.PublicKey)
}

// =============================================================================

// AccountID represents the id of a participant on the blockchain.
type AccountID string

// ToAccountID validates the string can be used as an account id. Colons are
// rejected since the transaction wire format doesn't escape them.
func ToAccountID(id string) (AccountID, error) {
	a := AccountID(id)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// IsAccountID verifies whether the underlying data represents a valid account id.
func (a AccountID) IsAccountID() bool {
	if a == "" {
		return false
	}

	for _, c := range []byte(a) {
		if c == ':' || c < 0x21 || c > 0x7e {
			return false
		}
	}

	return true
}
