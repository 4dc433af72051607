package transaction

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind identifies one of the five supported transaction types.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// ParseKind maps the wire name of a transaction type to its Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return k, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// IsDisputable reports whether records of this kind can be the target of a
// dispute, resolve or chargeback.
func (k Kind) IsDisputable() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// ClientID identifies an account holder.
type ClientID uint16

// TxID identifies a transaction within a client's history.
type TxID uint32

// Transaction is a single immutable input record.
type Transaction struct {
	Kind   Kind
	Client ClientID
	ID     TxID
	Amount decimal.NullDecimal
}

// Deposit builds a deposit record.
func Deposit(client ClientID, id TxID, amount decimal.Decimal) Transaction {
	return Transaction{Kind: KindDeposit, Client: client, ID: id, Amount: decimal.NewNullDecimal(amount)}
}

// Withdrawal builds a withdrawal record.
func Withdrawal(client ClientID, id TxID, amount decimal.Decimal) Transaction {
	return Transaction{Kind: KindWithdrawal, Client: client, ID: id, Amount: decimal.NewNullDecimal(amount)}
}

// Dispute builds a dispute record referencing transaction id.
func Dispute(client ClientID, id TxID) Transaction {
	return Transaction{Kind: KindDispute, Client: client, ID: id}
}

// Resolve builds a resolve record referencing transaction id.
func Resolve(client ClientID, id TxID) Transaction {
	return Transaction{Kind: KindResolve, Client: client, ID: id}
}

// Chargeback builds a chargeback record referencing transaction id.
func Chargeback(client ClientID, id TxID) Transaction {
	return Transaction{Kind: KindChargeback, Client: client, ID: id}
}

// Validate checks the field-presence rules: disputable kinds carry a positive
// amount, the others carry none.
func (t Transaction) Validate() error {
	if t.Kind.IsDisputable() {
		if !t.Amount.Valid {
			return fmt.Errorf("%s transactions must contain an amount", t.Kind)
		}
		if !t.Amount.Decimal.IsPositive() {
			return fmt.Errorf("%s transactions must contain a positive amount", t.Kind)
		}
		return nil
	}
	if t.Amount.Valid {
		return fmt.Errorf("%s transactions cannot contain an amount", t.Kind)
	}
	return nil
}

// Signed returns the amount of a disputable record as it affects available
// funds: positive for deposits, negative for withdrawals. Records without an
// amount yield zero.
func (t Transaction) Signed() decimal.Decimal {
	if !t.Amount.Valid {
		return decimal.Zero
	}
	if t.Kind == KindWithdrawal {
		return t.Amount.Decimal.Neg()
	}
	return t.Amount.Decimal
}
