package engine

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/yahgos/payment-engine/internal/domain"
	"github.com/yahgos/payment-engine/internal/infrastructure/metrics"
)

// Worker owns a disjoint set of clients and applies their transactions
// strictly in arrival order. Account state is confined to the worker:
// no other goroutine reads or writes it until the worker has exited.
type Worker struct {
	id       int
	in       chan domain.Transaction
	accounts *AccountStore
	ledger   *LedgerIndex
	log      zerolog.Logger
	metrics  *metrics.Metrics

	applied  int64
	rejected int64
}

// NewWorker returns a worker with a queue of queueSize transactions.
func NewWorker(id, queueSize int, log zerolog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		id:       id,
		in:       make(chan domain.Transaction, queueSize),
		accounts: NewAccountStore(),
		ledger:   NewLedgerIndex(),
		log:      log.With().Int("worker", id).Logger(),
		metrics:  m,
	}
}

// Run drains the worker's queue until it is closed. Rejections are
// logged and counted, never fatal: a bad transaction must not take
// the run down.
func (w *Worker) Run() {
	for tx := range w.in {
		if err := w.Apply(&tx); err != nil {
			w.rejected++
			w.metrics.TransactionsRejected.WithLabelValues(string(tx.Kind), rejectReason(err)).Inc()
			w.log.Debug().
				Str("kind", string(tx.Kind)).
				Uint16("client", tx.Client).
				Uint32("tx", tx.TxID).
				Err(err).
				Msg("transaction rejected")
			continue
		}
		w.applied++
		w.metrics.TransactionsProcessed.WithLabelValues(string(tx.Kind)).Inc()
	}

	w.log.Info().
		Int("clients", w.accounts.Len()).
		Int64("applied", w.applied).
		Int64("rejected", w.rejected).
		Msg("worker drained")
}

// Apply runs one transaction through the account state machine. The
// returned error names the rejection reason; balances only move on
// success.
func (w *Worker) Apply(tx *domain.Transaction) error {
	// A client shows up in the report from its first record onward,
	// even when that record is rejected.
	acc, created := w.accounts.GetOrCreate(tx.Client)
	if created {
		w.metrics.AccountsCreated.Inc()
	}

	if err := tx.Validate(); err != nil {
		return err
	}

	switch tx.Kind {
	case domain.KindDeposit:
		return w.applyDeposit(acc, tx)
	case domain.KindWithdrawal:
		return w.applyWithdrawal(acc, tx)
	case domain.KindDispute, domain.KindResolve, domain.KindChargeback:
		return w.applyDisputeAction(acc, tx)
	default:
		return domain.ErrUnknownKind
	}
}

func (w *Worker) applyDeposit(acc *domain.Account, tx *domain.Transaction) error {
	if w.ledger.Contains(tx.TxID) {
		return domain.ErrDuplicateTransaction
	}
	if err := acc.Deposit(tx.Amount); err != nil {
		return err
	}
	w.ledger.Put(domain.NewLedgerEntry(tx))
	return nil
}

func (w *Worker) applyWithdrawal(acc *domain.Account, tx *domain.Transaction) error {
	if w.ledger.Contains(tx.TxID) {
		return domain.ErrDuplicateTransaction
	}
	if err := acc.Withdraw(tx.Amount); err != nil {
		return err
	}
	w.ledger.Put(domain.NewLedgerEntry(tx))
	return nil
}

func (w *Worker) applyDisputeAction(acc *domain.Account, tx *domain.Transaction) error {
	entry, ok := w.ledger.Get(tx.TxID)
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if entry.Client != tx.Client {
		return domain.ErrClientMismatch
	}

	switch tx.Kind {
	case domain.KindDispute:
		return entry.Dispute(acc)
	case domain.KindResolve:
		return entry.Resolve(acc)
	default:
		wasLocked := acc.Locked
		if err := entry.Chargeback(acc); err != nil {
			return err
		}
		if !wasLocked {
			w.metrics.AccountsLocked.Inc()
		}
		return nil
	}
}

// Accounts exposes the worker's store for aggregation after Run has
// returned.
func (w *Worker) Accounts() *AccountStore {
	return w.accounts
}

// Stats returns how many transactions the worker applied and
// rejected. Only valid after Run has returned.
func (w *Worker) Stats() (applied, rejected int64) {
	return w.applied, w.rejected
}

// rejectReason buckets a rejection error for metrics labels.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrDuplicateTransaction):
		return "duplicate_tx"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "unknown_tx"
	case errors.Is(err, domain.ErrClientMismatch):
		return "wrong_client"
	case errors.Is(err, domain.ErrNotDisputable), errors.Is(err, domain.ErrNotDisputed):
		return "illegal_transition"
	default:
		return "other"
	}
}
