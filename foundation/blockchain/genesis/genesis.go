// Package genesis maintains the starting parameters for a simulated network.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Genesis represents the parameters every chain in the network is created with.
type Genesis struct {
	Date            time.Time     `json:"date"`
	Difficulty      int           `json:"difficulty"`       // Number of leading zero bytes a block hash must have.
	NonceWidth      int           `json:"nonce_width"`      // Number of random bytes sampled per mining attempt.
	Miners          int           `json:"miners"`           // Number of miners racing in a consensus round.
	MempoolCapacity int           `json:"mempool_capacity"` // Maximum number of pending transactions per chain.
	MaxShards       int           `json:"max_shards"`       // Upper bound on the number of shards.
	RoundTimeout    time.Duration `json:"round_timeout"`    // Zero means a round runs until majority is reached.
	Balance         uint64        `json:"balance"`          // Starting balance for every account.
	Accounts        []string      `json:"accounts"`         // Participant ids in allocation order.
}

// Default returns the parameters the reference network runs with.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:      2,
		NonceWidth:      10,
		Miners:          5,
		MempoolCapacity: 32,
		MaxShards:       3,
		Balance:         100,
		Accounts: []string{
			"Alice", "Bob", "Chris", "David", "Edgar", "Phoebe", "Greg",
			"Harry", "Ingrid", "Jason", "Kevin", "Loc", "Margaret",
		},
	}
}

// Load opens and consumes the genesis file. Any field left at its zero value
// is taken from Default.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var gen Genesis
	if err := json.Unmarshal(content, &gen); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	gen = gen.withDefaults()
	if err := gen.Validate(); err != nil {
		return Genesis{}, err
	}

	return gen, nil
}

// Validate checks the parameters can produce a working network.
func (g Genesis) Validate() error {
	switch {
	case g.Difficulty < 0 || g.Difficulty > 32:
		return fmt.Errorf("difficulty must be between 0 and 32, got %d", g.Difficulty)
	case g.NonceWidth <= 0:
		return fmt.Errorf("nonce width must be positive, got %d", g.NonceWidth)
	case g.Miners <= 0:
		return fmt.Errorf("miners must be positive, got %d", g.Miners)
	case g.MempoolCapacity <= 0:
		return fmt.Errorf("mempool capacity must be positive, got %d", g.MempoolCapacity)
	case g.MaxShards <= 0:
		return fmt.Errorf("max shards must be positive, got %d", g.MaxShards)
	case g.RoundTimeout < 0:
		return errors.New("round timeout can't be negative")
	case len(g.Accounts) == 0:
		return errors.New("at least one account is required")
	}

	seen := make(map[string]struct{}, len(g.Accounts))
	for _, id := range g.Accounts {
		if id == "" {
			return errors.New("account id can't be empty")
		}
		if _, exists := seen[id]; exists {
			return fmt.Errorf("duplicate account id %q", id)
		}
		seen[id] = struct{}{}
	}

	return nil
}

// withDefaults fills zero values from Default.
func (g Genesis) withDefaults() Genesis {
	def := Default()

	if g.Date.IsZero() {
		g.Date = def.Date
	}
	if g.NonceWidth == 0 {
		g.NonceWidth = def.NonceWidth
	}
	if g.Miners == 0 {
		g.Miners = def.Miners
	}
	if g.MempoolCapacity == 0 {
		g.MempoolCapacity = def.MempoolCapacity
	}
	if g.MaxShards == 0 {
		g.MaxShards = def.MaxShards
	}
	if g.Balance == 0 {
		g.Balance = def.Balance
	}
	if len(g.Accounts) == 0 {
		g.Accounts = def.Accounts
	}

	return g
}
