package public

import (
	"github.com/shardlab/powshard/business/core/network"
	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/signature"
)

// submitTx is the body of a transaction submission.
type submitTx struct {
	Transaction string `json:"transaction" validate:"required"`
	Signature   string `json:"signature" validate:"required,hexadecimal"`
}

// submitResult is what a client sees after a submission. Rejections are
// reported with success set to false.
type submitResult struct {
	Success  bool   `json:"success"`
	Type     string `json:"type"`
	Time     string `json:"time"`
	Shards   int    `json:"shards"`
	Balance  uint64 `json:"balance"`
	ErrorMsg string `json:"errorMsg,omitempty"`
}

type account struct {
	AccountID string `json:"id"`
	Balance   uint64 `json:"balance"`
	Nonce     uint64 `json:"nonce"`
	PublicKey string `json:"publicKey"`
	ShardID   int    `json:"shard"`
}

func toAccounts(infos []network.AccountInfo) []account {
	out := make([]account, len(infos))
	for i, info := range infos {
		out[i] = account{
			AccountID: string(info.AccountID),
			Balance:   info.Balance,
			Nonce:     info.Nonce,
			PublicKey: info.PublicKeyHex,
			ShardID:   info.ShardID,
		}
	}
	return out
}

type block struct {
	Height   int    `json:"height"`
	Hash     string `json:"hash"`
	PrevHash string `json:"prevHash"`
	Nonce    string `json:"nonce"`
	Payload  string `json:"payload"`
}

func toBlocks(blks []database.Block) []block {
	out := make([]block, len(blks))
	for i, blk := range blks {
		out[i] = block{
			Height:   i,
			Hash:     blk.HashHex(),
			PrevHash: signature.ToHex(blk.PrevHash),
			Nonce:    signature.ToHex(blk.Nonce),
			Payload:  string(blk.Payload),
		}
	}
	return out
}

type shardCount struct {
	Shards int `json:"shards"`
}

type shardValid struct {
	Shard string `json:"shard"`
	Valid bool   `json:"valid"`
}

// benchRequest asks for a serial against sharded comparison.
type benchRequest struct {
	Transactions int `json:"transactions" validate:"required,min=1,max=1000"`
}

type benchResult struct {
	Transactions    int     `json:"transactions"`
	Shards          int     `json:"shards"`
	Miners          int     `json:"miners"`
	SerialTime      string  `json:"serialTime"`
	ShardedTime     string  `json:"shardedTime"`
	SerialBlocks    int     `json:"serialBlocks"`
	ShardedBlocks   int     `json:"shardedBlocks"`
	SerialAttempts  uint64  `json:"serialAttempts"`
	ShardedAttempts uint64  `json:"shardedAttempts"`
	Speedup         float64 `json:"speedup"`
}

// validateResult reports whether a transaction would be accepted.
type validateResult struct {
	Valid    bool   `json:"valid"`
	ErrorMsg string `json:"errorMsg,omitempty"`
}

type chainStats struct {
	ShardID    int    `json:"shard"`
	Length     int    `json:"length"`
	Mempool    int    `json:"mempool"`
	Miners     int    `json:"miners"`
	Attempts   uint64 `json:"attempts"`
	LatestHash string `json:"latestHash"`
}

func toChainStats(stats []network.ChainStats) []chainStats {
	out := make([]chainStats, len(stats))
	for i, st := range stats {
		out[i] = chainStats{
			ShardID:    st.ShardID,
			Length:     st.Length,
			Mempool:    st.Mempool,
			Miners:     st.Miners,
			Attempts:   st.Attempts,
			LatestHash: st.LatestHash,
		}
	}
	return out
}
