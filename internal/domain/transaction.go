package domain

import "github.com/shopspring/decimal"

// Kind identifies the type of an input record.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// ParseKind maps an input type field to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return k, nil
	default:
		return "", ErrUnknownKind
	}
}

// Transaction is a single input record. Amount is zero for dispute,
// resolve and chargeback records, which reference an earlier
// transaction instead of carrying funds of their own.
type Transaction struct {
	Kind   Kind
	Client uint16
	TxID   uint32
	Amount decimal.Decimal
}

// RequiresAmount reports whether this record kind carries an amount.
func (t *Transaction) RequiresAmount() bool {
	return t.Kind == KindDeposit || t.Kind == KindWithdrawal
}

// Validate checks that the record is internally consistent.
func (t *Transaction) Validate() error {
	if t.RequiresAmount() && t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
