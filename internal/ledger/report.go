package ledger

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/txengine/internal/account"
	"github.com/congo-pay/txengine/internal/transaction"
)

// AccountReport is the rounded snapshot of one client's account.
type AccountReport struct {
	Client    transaction.ClientID `json:"client"`
	Available decimal.Decimal      `json:"available"`
	Held      decimal.Decimal      `json:"held"`
	Total     decimal.Decimal      `json:"total"`
	Locked    bool                 `json:"locked"`
}

func newReport(client transaction.ClientID, acc *account.Account) AccountReport {
	return AccountReport{
		Client:    client,
		Available: acc.Available(),
		Held:      acc.Held(),
		Total:     acc.Total(),
		Locked:    acc.Locked(),
	}
}

// Report returns one row per known client, sorted ascending by client.
func (l *Ledger) Report() []AccountReport {
	l.mu.RLock()
	defer l.mu.RUnlock()

	reports := make([]AccountReport, 0, len(l.accounts))
	for client, acc := range l.accounts {
		reports = append(reports, newReport(client, acc))
	}
	slices.SortFunc(reports, func(a, b AccountReport) int {
		return cmp.Compare(a.Client, b.Client)
	})
	return reports
}

// Account returns the snapshot of a single client.
func (l *Ledger) Account(client transaction.ClientID) (AccountReport, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[client]
	if !ok {
		return AccountReport{}, false
	}
	return newReport(client, acc), true
}

// Len returns the number of known clients.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}
