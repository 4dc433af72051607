package account

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds occurs when a withdrawal would drive available funds
// below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Account holds one client's funds. It knows nothing about transaction
// history; callers decide which operation applies and with what amount.
// Values are kept at full precision and rounded only when read.
type Account struct {
	available decimal.Decimal
	held      decimal.Decimal
	locked    bool
	rounding  Rounding
}

// New creates an empty, unlocked account reporting values under rounding.
func New(rounding Rounding) *Account {
	return &Account{rounding: rounding}
}

// Available returns the rounded funds the client may withdraw.
func (a *Account) Available() decimal.Decimal {
	return a.rounding.Round(a.available)
}

// Held returns the rounded funds frozen by open disputes.
func (a *Account) Held() decimal.Decimal {
	return a.rounding.Round(a.held)
}

// Total returns available plus held, rounded once.
func (a *Account) Total() decimal.Decimal {
	return a.rounding.Round(a.available.Add(a.held))
}

// Locked reports whether a chargeback has frozen the account.
func (a *Account) Locked() bool {
	return a.locked
}

// Deposit credits available funds.
func (a *Account) Deposit(amount decimal.Decimal) {
	a.available = a.available.Add(amount)
}

// Withdraw debits available funds, failing with ErrInsufficientFunds when
// the balance would become negative.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	next := a.available.Sub(amount)
	if next.IsNegative() {
		return ErrInsufficientFunds
	}
	a.available = next
	return nil
}

// Dispute moves amount from available to held. Either side may go negative.
func (a *Account) Dispute(amount decimal.Decimal) {
	a.available = a.available.Sub(amount)
	a.held = a.held.Add(amount)
}

// Resolve releases amount from held back to available.
func (a *Account) Resolve(amount decimal.Decimal) {
	a.available = a.available.Add(amount)
	a.held = a.held.Sub(amount)
}

// Chargeback removes amount from held and locks the account.
func (a *Account) Chargeback(amount decimal.Decimal) {
	a.held = a.held.Sub(amount)
	a.locked = true
}
