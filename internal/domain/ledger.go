package domain

import "github.com/shopspring/decimal"

// DisputeState tracks where a ledger entry sits in the dispute
// lifecycle. Resolved and charged back are terminal: an entry can be
// disputed at most once.
type DisputeState string

const (
	DisputeStateNone        DisputeState = "none"
	DisputeStateDisputed    DisputeState = "disputed"
	DisputeStateResolved    DisputeState = "resolved"
	DisputeStateChargedBack DisputeState = "charged_back"
)

// LedgerEntry records a settled deposit or withdrawal so that later
// dispute records can reference it by transaction id.
type LedgerEntry struct {
	TxID   uint32
	Client uint16
	Kind   Kind
	Amount decimal.Decimal
	State  DisputeState
}

// NewLedgerEntry records t as a settled movement.
func NewLedgerEntry(t *Transaction) *LedgerEntry {
	return &LedgerEntry{
		TxID:   t.TxID,
		Client: t.Client,
		Kind:   t.Kind,
		Amount: t.Amount,
		State:  DisputeStateNone,
	}
}

// Dispute places the entry's funds on hold. For a deposit the amount
// moves from available to held. For a withdrawal the funds already
// left the account, so only held grows while the claim is examined.
// Disputing a deposit may drive available negative when the funds
// were spent in the meantime.
func (e *LedgerEntry) Dispute(a *Account) error {
	if e.State != DisputeStateNone {
		return ErrNotDisputable
	}
	if e.Kind == KindDeposit {
		a.Available = a.Available.Sub(e.Amount)
	}
	a.Held = a.Held.Add(e.Amount)
	e.State = DisputeStateDisputed
	return nil
}

// Resolve releases the hold in the original transaction's favor. A
// resolved deposit returns the amount to available; a resolved
// withdrawal simply drops the hold.
func (e *LedgerEntry) Resolve(a *Account) error {
	if e.State != DisputeStateDisputed {
		return ErrNotDisputed
	}
	a.Held = a.Held.Sub(e.Amount)
	if e.Kind == KindDeposit {
		a.Available = a.Available.Add(e.Amount)
	}
	e.State = DisputeStateResolved
	return nil
}

// Chargeback settles the dispute against the account holder's
// counterparty and freezes the account. A charged-back deposit
// forfeits the held funds; a charged-back withdrawal returns the
// amount to available, reversing the original debit.
func (e *LedgerEntry) Chargeback(a *Account) error {
	if e.State != DisputeStateDisputed {
		return ErrNotDisputed
	}
	a.Held = a.Held.Sub(e.Amount)
	if e.Kind == KindWithdrawal {
		a.Available = a.Available.Add(e.Amount)
	}
	a.Locked = true
	e.State = DisputeStateChargedBack
	return nil
}
