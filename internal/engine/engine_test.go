package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahgos/payment-engine/internal/domain"
	"github.com/yahgos/payment-engine/internal/engine"
	"github.com/yahgos/payment-engine/internal/infrastructure/metrics"
)

// sliceSource replays a fixed transaction sequence.
type sliceSource struct {
	txs []domain.Transaction
	pos int
}

func (s *sliceSource) Next() (domain.Transaction, error) {
	if s.pos >= len(s.txs) {
		return domain.Transaction{}, io.EOF
	}
	tx := s.txs[s.pos]
	s.pos++
	return tx, nil
}

// brokenSource fails after yielding its records.
type brokenSource struct {
	txs []domain.Transaction
	pos int
	err error
}

func (s *brokenSource) Next() (domain.Transaction, error) {
	if s.pos >= len(s.txs) {
		return domain.Transaction{}, s.err
	}
	tx := s.txs[s.pos]
	s.pos++
	return tx, nil
}

// endlessSource yields deposits forever.
type endlessSource struct {
	next uint32
}

func (s *endlessSource) Next() (domain.Transaction, error) {
	s.next++
	return domain.Transaction{
		Kind:   domain.KindDeposit,
		Client: uint16(s.next % 100),
		TxID:   s.next,
		Amount: decimal.NewFromInt(1),
	}, nil
}

func newEngine(workers int) *engine.Engine {
	cfg := engine.Config{Workers: workers, QueueSize: 8}
	return engine.New(cfg, zerolog.Nop(), metrics.NewWith(prometheus.NewRegistry()))
}

// render flattens snapshots into comparable lines.
func render(snaps []domain.Snapshot) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, fmt.Sprintf("%d|%s|%s|%s|%t",
			s.Client,
			s.Available.StringFixed(4),
			s.Held.StringFixed(4),
			s.Total.StringFixed(4),
			s.Locked,
		))
	}
	return out
}

func TestEngineRun_Lifecycle(t *testing.T) {
	src := &sliceSource{txs: []domain.Transaction{
		{Kind: domain.KindDeposit, Client: 1, TxID: 1, Amount: decimal.RequireFromString("100.1234")},
		{Kind: domain.KindDeposit, Client: 2, TxID: 2, Amount: decimal.RequireFromString("50")},
		{Kind: domain.KindWithdrawal, Client: 1, TxID: 3, Amount: decimal.RequireFromString("30")},
		{Kind: domain.KindDispute, Client: 2, TxID: 2},
		{Kind: domain.KindChargeback, Client: 2, TxID: 2},
		{Kind: domain.KindDeposit, Client: 2, TxID: 4, Amount: decimal.RequireFromString("1")}, // bounced: locked
		{Kind: domain.KindDeposit, Client: 3, TxID: 5, Amount: decimal.RequireFromString("7.5")},
		{Kind: domain.KindDispute, Client: 3, TxID: 5},
	}}

	snaps, err := newEngine(2).Run(context.Background(), src)
	require.NoError(t, err)

	require.Equal(t, []string{
		"1|70.1234|0.0000|70.1234|false",
		"2|0.0000|0.0000|0.0000|true",
		"3|0.0000|7.5000|7.5000|false",
	}, render(snaps))
}

func TestEngineRun_EmptySource(t *testing.T) {
	snaps, err := newEngine(4).Run(context.Background(), &sliceSource{})
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestEngineRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	txs := workload(5000)

	baseline, err := newEngine(1).Run(context.Background(), &sliceSource{txs: txs})
	require.NoError(t, err)
	require.NotEmpty(t, baseline)

	for _, workers := range []int{2, 3, 5, 8} {
		snaps, err := newEngine(workers).Run(context.Background(), &sliceSource{txs: txs})
		require.NoError(t, err)
		assert.Equal(t, render(baseline), render(snaps), "workers=%d", workers)
	}
}

func TestEngineRun_ReportSortedByClient(t *testing.T) {
	txs := workload(1000)

	snaps, err := newEngine(4).Run(context.Background(), &sliceSource{txs: txs})
	require.NoError(t, err)

	for i := 1; i < len(snaps); i++ {
		assert.Less(t, snaps[i-1].Client, snaps[i].Client)
	}
}

func TestEngineRun_SourceErrorAborts(t *testing.T) {
	srcErr := errors.New("row 17: bad client id")
	src := &brokenSource{
		txs: []domain.Transaction{
			{Kind: domain.KindDeposit, Client: 1, TxID: 1, Amount: decimal.NewFromInt(10)},
		},
		err: srcErr,
	}

	snaps, err := newEngine(2).Run(context.Background(), src)
	require.ErrorIs(t, err, srcErr)
	assert.Nil(t, snaps)
}

func TestEngineRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snaps, err := newEngine(1).Run(ctx, &endlessSource{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snaps)
}

func TestEngineWorkerSizing(t *testing.T) {
	assert.Equal(t, 4, newEngine(4).Workers())
	assert.GreaterOrEqual(t, newEngine(0).Workers(), 1)
	assert.GreaterOrEqual(t, newEngine(-3).Workers(), 1)
}

// workload builds a reproducible mixed transaction stream: unique tx
// ids, disputes and settlements that reference each client's own
// movements, and enough volume to shake out ordering bugs.
func workload(n int) []domain.Transaction {
	rng := rand.New(rand.NewSource(42))
	txs := make([]domain.Transaction, 0, n)
	movements := make(map[uint16][]uint32)
	nextID := uint32(1)

	for i := 0; i < n; i++ {
		client := uint16(rng.Intn(37) + 1)
		switch rng.Intn(10) {
		case 0, 1, 2, 3: // deposit
			txs = append(txs, domain.Transaction{
				Kind:   domain.KindDeposit,
				Client: client,
				TxID:   nextID,
				Amount: decimal.New(int64(rng.Intn(100_000)+1), -4),
			})
			movements[client] = append(movements[client], nextID)
			nextID++
		case 4, 5: // withdrawal
			txs = append(txs, domain.Transaction{
				Kind:   domain.KindWithdrawal,
				Client: client,
				TxID:   nextID,
				Amount: decimal.New(int64(rng.Intn(50_000)+1), -4),
			})
			movements[client] = append(movements[client], nextID)
			nextID++
		case 6, 7: // dispute an earlier movement
			if ids := movements[client]; len(ids) > 0 {
				txs = append(txs, domain.Transaction{
					Kind:   domain.KindDispute,
					Client: client,
					TxID:   ids[rng.Intn(len(ids))],
				})
			}
		case 8: // resolve
			if ids := movements[client]; len(ids) > 0 {
				txs = append(txs, domain.Transaction{
					Kind:   domain.KindResolve,
					Client: client,
					TxID:   ids[rng.Intn(len(ids))],
				})
			}
		case 9: // chargeback
			if ids := movements[client]; len(ids) > 0 {
				txs = append(txs, domain.Transaction{
					Kind:   domain.KindChargeback,
					Client: client,
					TxID:   ids[rng.Intn(len(ids))],
				})
			}
		}
	}
	return txs
}
