// Package wallets maintains the key pairs for the participants of the
// network. Keys are either generated in memory or read from a folder of
// PEM files where the file name is the account id.
package wallets

import (
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/signature"
	"golang.org/x/sync/errgroup"
)

// KeyExtension is the file extension for private key files.
const KeyExtension = ".pem"

// Wallet holds the key pair for a single participant.
type Wallet struct {
	AccountID  database.AccountID
	PrivateKey *rsa.PrivateKey
	PublicKey  []byte
}

// New constructs a wallet for the account from an existing private key.
func New(accountID database.AccountID, privateKey *rsa.PrivateKey) (Wallet, error) {
	if !accountID.IsAccountID() {
		return Wallet{}, fmt.Errorf("account %q: invalid account format", accountID)
	}

	pub, err := signature.EncodePublicKey(&privateKey.PublicKey)
	if err != nil {
		return Wallet{}, fmt.Errorf("account %q: encoding public key: %w", accountID, err)
	}

	w := Wallet{
		AccountID:  accountID,
		PrivateKey: privateKey,
		PublicKey:  pub,
	}

	return w, nil
}

// PublicKeyHex returns the public key in the form used by the wire format.
func (w Wallet) PublicKeyHex() string {
	return hex.EncodeToString(w.PublicKey)
}

// SignTx builds the wire format for a payment from this wallet and signs it.
func (w Wallet) SignTx(amount int64, payeeID database.AccountID, nonce uint64) (string, string, error) {
	tx := database.NewTx(amount, w.AccountID, w.PublicKey, payeeID, nonce)

	sig, err := signature.Sign(tx.String(), w.PrivateKey)
	if err != nil {
		return "", "", err
	}

	return tx.String(), sig, nil
}

// =============================================================================

// Wallets maintains the set of participant wallets in allocation order.
type Wallets struct {
	wallets map[database.AccountID]Wallet
	order   []database.AccountID
}

// Generate constructs a new key pair for each of the specified account ids.
// Keys are generated in parallel.
func Generate(accountIDs []string) (*Wallets, error) {
	list := make([]Wallet, len(accountIDs))

	var g errgroup.Group
	for i, id := range accountIDs {
		g.Go(func() error {
			pk, err := signature.GenerateKey()
			if err != nil {
				return fmt.Errorf("account %q: generating key: %w", id, err)
			}

			w, err := New(database.AccountID(id), pk)
			if err != nil {
				return err
			}

			list[i] = w
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fromList(list)
}

// Load reads every key file under the root folder. Accounts are ordered by
// account id since a folder has no natural order.
func Load(root string) (*Wallets, error) {
	var list []Wallet

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != KeyExtension {
			return nil
		}

		data, err := os.ReadFile(fileName)
		if err != nil {
			return err
		}

		pk, err := signature.DecodePrivateKey(data)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		w, err := New(database.AccountID(strings.TrimSuffix(filepath.Base(fileName), KeyExtension)), pk)
		if err != nil {
			return err
		}

		list = append(list, w)
		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].AccountID < list[j].AccountID })

	return fromList(list)
}

// Save writes the private key of the wallet into the folder.
func Save(root string, w Wallet) error {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return err
	}

	path := filepath.Join(root, string(w.AccountID)+KeyExtension)
	return os.WriteFile(path, signature.EncodePrivateKey(w.PrivateKey), 0o600)
}

// Lookup returns the wallet for the specified account.
func (ws *Wallets) Lookup(accountID database.AccountID) (Wallet, bool) {
	w, exists := ws.wallets[accountID]
	return w, exists
}

// AccountIDs returns the account ids in allocation order.
func (ws *Wallets) AccountIDs() []database.AccountID {
	ids := make([]database.AccountID, len(ws.order))
	copy(ids, ws.order)
	return ids
}

// Accounts returns a ledger account for every wallet with the starting
// balance. Accounts are not yet assigned to a shard.
func (ws *Wallets) Accounts(balance uint64) []database.Account {
	accounts := make([]database.Account, len(ws.order))
	for i, id := range ws.order {
		accounts[i] = database.NewAccount(id, balance, ws.wallets[id].PublicKey, 0)
	}

	return accounts
}

// Count returns the number of wallets.
func (ws *Wallets) Count() int {
	return len(ws.order)
}

// =============================================================================

func fromList(list []Wallet) (*Wallets, error) {
	if len(list) == 0 {
		return nil, errors.New("no wallets provided")
	}

	ws := Wallets{
		wallets: make(map[database.AccountID]Wallet, len(list)),
		order:   make([]database.AccountID, 0, len(list)),
	}

	for _, w := range list {
		if _, exists := ws.wallets[w.AccountID]; exists {
			return nil, fmt.Errorf("account %q: duplicate wallet", w.AccountID)
		}
		ws.wallets[w.AccountID] = w
		ws.order = append(ws.order, w.AccountID)
	}

	return &ws, nil
}
