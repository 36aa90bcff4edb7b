package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

// EventStore persists decoded batches into the per-kind tables with upsert
// semantics. Every row insert conflicts on id and overwrites, so replayed
// deliveries converge instead of duplicating.
type EventStore struct {
	db     *DB
	logger *slog.Logger
}

// NewEventStore creates an event store on the given database.
func NewEventStore(db *DB, logger *slog.Logger) *EventStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventStore{
		db:     db,
		logger: logger.With("component", "event-store"),
	}
}

// UpsertBatch writes every kind in the batch. Kinds are attempted
// independently so one failing table does not block the rest; the first
// error is returned after all kinds are tried.
func (s *EventStore) UpsertBatch(ctx context.Context, batch *event.Batch) error {
	var firstErr error

	record := func(kind event.Kind, count int, err error) {
		if err == nil {
			return
		}
		s.logger.Error("failed to upsert events",
			"kind", string(kind),
			"count", count,
			"error", err,
		)
		if firstErr == nil {
			firstErr = fmt.Errorf("upsert %s: %w", kind, err)
		}
	}

	record(event.KindTrade, len(batch.Trade), s.upsertTrades(ctx, batch.Trade))
	record(event.KindOrderCreated, len(batch.OrderCreated), s.upsertOrdersCreated(ctx, batch.OrderCreated))
	record(event.KindOrdersCanceled, len(batch.OrdersCanceled), s.upsertOrdersCanceled(ctx, batch.OrdersCanceled))
	record(event.KindInitialized, len(batch.Initialized), s.upsertInitialized(ctx, batch.Initialized))
	record(event.KindOwnershipHandoverCanceled, len(batch.OwnershipHandoverCanceled), s.upsertHandoversCanceled(ctx, batch.OwnershipHandoverCanceled))
	record(event.KindOwnershipHandoverRequested, len(batch.OwnershipHandoverRequested), s.upsertHandoversRequested(ctx, batch.OwnershipHandoverRequested))
	record(event.KindOwnershipTransferred, len(batch.OwnershipTransferred), s.upsertOwnershipTransfers(ctx, batch.OwnershipTransferred))
	record(event.KindUpgraded, len(batch.Upgraded), s.upsertUpgrades(ctx, batch.Upgraded))

	return firstErr
}

// sendBatch queues n statements through fn and executes them as one pgx
// batch round trip.
func (s *EventStore) sendBatch(ctx context.Context, n int, queue func(b *pgx.Batch)) error {
	if n == 0 {
		return nil
	}

	b := &pgx.Batch{}
	queue(b)

	results := s.db.pool.SendBatch(ctx, b)
	defer results.Close()

	for i := 0; i < b.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *EventStore) upsertTrades(ctx context.Context, events []*event.Trade) error {
	const sql = `
		INSERT INTO trades (
			id, block_number, transaction_hash, order_book_address,
			order_id, maker_address, is_buy, price, updated_size,
			taker_address, tx_origin, filled_size
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			order_book_address = EXCLUDED.order_book_address,
			order_id = EXCLUDED.order_id,
			maker_address = EXCLUDED.maker_address,
			is_buy = EXCLUDED.is_buy,
			price = EXCLUDED.price,
			updated_size = EXCLUDED.updated_size,
			taker_address = EXCLUDED.taker_address,
			tx_origin = EXCLUDED.tx_origin,
			filled_size = EXCLUDED.filled_size
	`
	return s.sendBatch(ctx, len(events), func(b *pgx.Batch) {
		for _, e := range events {
			b.Queue(sql,
				e.ID, e.BlockNumber, e.TransactionHash, e.OrderBookAddress,
				e.OrderID, e.MakerAddress, e.IsBuy, e.Price, e.UpdatedSize,
				e.TakerAddress, e.TxOrigin, e.FilledSize,
			)
		}
	})
}

func (s *EventStore) upsertOrdersCreated(ctx context.Context, events []*event.OrderCreated) error {
	const sql = `
		INSERT INTO order_created (
			id, block_number, transaction_hash, order_book_address,
			order_id, owner_address, size, price, is_buy
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			order_book_address = EXCLUDED.order_book_address,
			order_id = EXCLUDED.order_id,
			owner_address = EXCLUDED.owner_address,
			size = EXCLUDED.size,
			price = EXCLUDED.price,
			is_buy = EXCLUDED.is_buy
	`
	return s.sendBatch(ctx, len(events), func(b *pgx.Batch) {
		for _, e := range events {
			b.Queue(sql,
				e.ID, e.BlockNumber, e.TransactionHash, e.OrderBookAddress,
				e.OrderID, e.Owner, e.Size, e.Price, e.IsBuy,
			)
		}
	})
}

func (s *EventStore) upsertOrdersCanceled(ctx context.Context, events []*event.OrdersCanceled) error {
	const sql = `
		INSERT INTO orders_canceled (
			id, block_number, transaction_hash, order_book_address,
			order_ids, owner_address
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			order_book_address = EXCLUDED.order_book_address,
			order_ids = EXCLUDED.order_ids,
			owner_address = EXCLUDED.owner_address
	`
	return s.sendBatch(ctx, len(events), func(b *pgx.Batch) {
		for _, e := range events {
			b.Queue(sql,
				e.ID, e.BlockNumber, e.TransactionHash, e.OrderBookAddress,
				e.OrderIDs, e.Owner,
			)
		}
	})
}

func (s *EventStore) upsertInitialized(ctx context.Context, events []*event.Initialized) error {
	const sql = `
		INSERT INTO initialized (
			id, block_number, transaction_hash, order_book_address, version
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			order_book_address = EXCLUDED.order_book_address,
			version = EXCLUDED.version
	`
	return s.sendBatch(ctx, len(events), func(b *pgx.Batch) {
		for _, e := range events {
			b.Queue(sql, e.ID, e.BlockNumber, e.TransactionHash, e.OrderBookAddress, e.Version)
		}
	})
}

func (s *EventStore) upsertHandoversCanceled(ctx context.Context, events []*event.OwnershipHandoverCanceled) error {
	const sql = `
		INSERT INTO ownership_handover_canceled (
			id, block_number, transaction_hash, order_book_address, pending_owner
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			order_book_address = EXCLUDED.order_book_address,
			pending_owner = EXCLUDED.pending_owner
	`
	return s.sendBatch(ctx, len(events), func(b *pgx.Batch) {
		for _, e := range events {
			b.Queue(sql, e.ID, e.BlockNumber, e.TransactionHash, e.OrderBookAddress, e.PendingOwner)
		}
	})
}

func (s *EventStore) upsertHandoversRequested(ctx context.Context, events []*event.OwnershipHandoverRequested) error {
	const sql = `
		INSERT INTO ownership_handover_requested (
			id, block_number, transaction_hash, order_book_address, pending_owner
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			order_book_address = EXCLUDED.order_book_address,
			pending_owner = EXCLUDED.pending_owner
	`
	return s.sendBatch(ctx, len(events), func(b *pgx.Batch) {
		for _, e := range events {
			b.Queue(sql, e.ID, e.BlockNumber, e.TransactionHash, e.OrderBookAddress, e.PendingOwner)
		}
	})
}

func (s *EventStore) upsertOwnershipTransfers(ctx context.Context, events []*event.OwnershipTransferred) error {
	const sql = `
		INSERT INTO ownership_transferred (
			id, block_number, transaction_hash, order_book_address, old_owner, new_owner
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			order_book_address = EXCLUDED.order_book_address,
			old_owner = EXCLUDED.old_owner,
			new_owner = EXCLUDED.new_owner
	`
	return s.sendBatch(ctx, len(events), func(b *pgx.Batch) {
		for _, e := range events {
			b.Queue(sql, e.ID, e.BlockNumber, e.TransactionHash, e.OrderBookAddress, e.OldOwner, e.NewOwner)
		}
	})
}

func (s *EventStore) upsertUpgrades(ctx context.Context, events []*event.Upgraded) error {
	const sql = `
		INSERT INTO upgraded (
			id, block_number, transaction_hash, order_book_address, implementation
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			transaction_hash = EXCLUDED.transaction_hash,
			order_book_address = EXCLUDED.order_book_address,
			implementation = EXCLUDED.implementation
	`
	return s.sendBatch(ctx, len(events), func(b *pgx.Batch) {
		for _, e := range events {
			b.Queue(sql, e.ID, e.BlockNumber, e.TransactionHash, e.OrderBookAddress, e.Implementation)
		}
	})
}
