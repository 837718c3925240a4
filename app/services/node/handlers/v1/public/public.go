// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shardlab/powshard/business/core/network"
	"github.com/shardlab/powshard/business/web/errs"
	"github.com/shardlab/powshard/business/web/metrics"
	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/events"
	"github.com/shardlab/powshard/foundation/validate"
	"github.com/shardlab/powshard/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of network endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Network *network.Network
	WS      websocket.Upgrader
	Evts    *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction submits a transaction to the serial chain.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitTx
	if err := web.Decode(r, &req); err != nil {
		return decodeError(err)
	}

	start := time.Now()
	err := h.Network.Submit(req.Transaction, req.Signature)

	return h.respondSubmit(ctx, w, "serial", "", req, time.Since(start), err)
}

// SubmitShardedTransaction submits a transaction to the shard in the path.
func (h Handlers) SubmitShardedTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	shardID := web.Param(r, "shard")
	if !h.Network.IsValidShardID(shardID) {
		return errs.NewTrusted(fmt.Errorf("%w: %q", network.ErrUnknownShard, shardID), http.StatusNotFound)
	}

	var req submitTx
	if err := web.Decode(r, &req); err != nil {
		return decodeError(err)
	}

	start := time.Now()
	err := h.Network.SubmitSharded(req.Transaction, req.Signature, shardID)

	return h.respondSubmit(ctx, w, "sharded", shardID, req, time.Since(start), err)
}

// ValidateTransaction checks a transaction against the serial chain or the
// shard in the path without queueing it.
func (h Handlers) ValidateTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	shardID := web.Param(r, "shard")

	var req submitTx
	if err := web.Decode(r, &req); err != nil {
		return decodeError(err)
	}

	res := validateResult{Valid: true}

	if err := h.Network.Check(req.Transaction, req.Signature, shardID); err != nil {
		if errors.Is(err, network.ErrUnknownShard) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		res = validateResult{Valid: false, ErrorMsg: err.Error()}
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

// Stats returns the counters of every chain, or of the shard in the path.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	shardID := web.Param(r, "shard")
	if shardID == "" {
		return web.Respond(ctx, w, toChainStats(h.Network.AllStats()), http.StatusOK)
	}

	st, err := h.Network.Stats(shardID)
	if err != nil {
		return errs.NewTrusted(err, errs.StatusOf(err))
	}

	return web.Respond(ctx, w, toChainStats([]network.ChainStats{st})[0], http.StatusOK)
}

// Accounts returns the accounts of the serial chain or of the shard in the
// path.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	infos, err := h.Network.ListAccounts(web.Param(r, "shard"))
	if err != nil {
		return errs.NewTrusted(err, errs.StatusOf(err))
	}

	return web.Respond(ctx, w, toAccounts(infos), http.StatusOK)
}

// Blocks returns the blocks of the serial chain or of the shard in the path.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blks, err := h.Network.Blocks(web.Param(r, "shard"))
	if err != nil {
		return errs.NewTrusted(err, errs.StatusOf(err))
	}

	return web.Respond(ctx, w, toBlocks(blks), http.StatusOK)
}

// ShardCount returns the number of shards.
func (h Handlers) ShardCount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, shardCount{Shards: h.Network.NumShards()}, http.StatusOK)
}

// ValidShard reports whether the shard in the path exists.
func (h Handlers) ValidShard(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	shardID := web.Param(r, "shard")
	return web.Respond(ctx, w, shardValid{Shard: shardID, Valid: h.Network.IsValidShardID(shardID)}, http.StatusOK)
}

// Genesis returns the parameters the network was created with.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Network.Genesis(), http.StatusOK)
}

// Bench runs the serial against sharded comparison.
func (h Handlers) Bench(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req benchRequest
	if err := web.Decode(r, &req); err != nil {
		return decodeError(err)
	}

	res, err := h.Network.Bench(ctx, req.Transactions)
	if err != nil {
		return errs.NewTrusted(err, http.StatusInternalServerError)
	}

	br := benchResult{
		Transactions:    res.Transactions,
		Shards:          res.Shards,
		Miners:          res.Miners,
		SerialTime:      res.SerialTime.String(),
		ShardedTime:     res.ShardedTime.String(),
		SerialBlocks:    res.SerialBlocks,
		ShardedBlocks:   res.ShardedBlocks,
		SerialAttempts:  res.SerialAttempts,
		ShardedAttempts: res.ShardedAttempts,
		Speedup:         res.Speedup(),
	}

	return web.Respond(ctx, w, br, http.StatusOK)
}

// =============================================================================

// respondSubmit reports the outcome of a submission along with the payer's
// balance on the chain it was submitted to.
func (h Handlers) respondSubmit(ctx context.Context, w http.ResponseWriter, kind string, shardID string, req submitTx, d time.Duration, err error) error {
	res := submitResult{
		Success: err == nil,
		Type:    kind,
		Time:    d.String(),
		Shards:  h.Network.NumShards(),
	}

	if err != nil {
		metrics.AddRejected(ctx)
		h.Log.Infow("submit", "traceid", web.GetTraceID(ctx), "type", kind, "shard", shardID, "rejected", err)
		res.ErrorMsg = err.Error()
	}

	if tx, perr := database.ParseTx(req.Transaction); perr == nil {
		if acc, qerr := h.Network.Account(shardID, tx.PayerID); qerr == nil {
			res.Balance = acc.Balance
		}
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

// decodeError marks a body that couldn't be read as a client error.
func decodeError(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}

	return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
}
