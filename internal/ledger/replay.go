package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/congo-pay/txengine/internal/account"
	"github.com/congo-pay/txengine/internal/transaction"
)

type entry struct {
	index int
	tx    transaction.Transaction
}

// group is one client's share of a batch, already stripped of references to
// transactions the client never made.
type group struct {
	client  transaction.ClientID
	entries []entry
	sources map[transaction.TxID]struct{}
}

// groupTransactions partitions txs by client, keeping input order inside each
// group and first-appearance order across groups. References with no earlier
// deposit or withdrawal in the same group are recorded as ignored in outcomes
// and left out.
func groupTransactions(txs []transaction.Transaction, outcomes []Outcome) []*group {
	byClient := make(map[transaction.ClientID]*group)
	var groups []*group

	for i, tx := range txs {
		g, ok := byClient[tx.Client]
		if !ok {
			g = &group{client: tx.Client, sources: make(map[transaction.TxID]struct{})}
			byClient[tx.Client] = g
			groups = append(groups, g)
		}

		if tx.Kind.IsDisputable() {
			g.sources[tx.ID] = struct{}{}
		} else if _, known := g.sources[tx.ID]; !known {
			outcomes[i] = ignored(tx, ReasonUnknownTransaction)
			continue
		}
		g.entries = append(g.entries, entry{index: i, tx: tx})
	}
	return groups
}

// replay applies a group to acc in order. A group addressed to an account
// that is locked when it starts is skipped entirely, and nothing after a
// chargeback in the same group is applied.
func replay(acc *account.Account, g *group, outcomes []Outcome) {
	disputable := make(map[transaction.TxID]transaction.Transaction, len(g.sources))
	for _, e := range g.entries {
		if acc.Locked() {
			outcomes[e.index] = ignored(e.tx, ReasonAccountLocked)
			continue
		}
		outcomes[e.index] = apply(acc, e.tx, disputable)
	}
}

func apply(acc *account.Account, tx transaction.Transaction, disputable map[transaction.TxID]transaction.Transaction) Outcome {
	switch tx.Kind {
	case transaction.KindDeposit:
		disputable[tx.ID] = tx
		acc.Deposit(tx.Amount.Decimal)
		return applied(tx)
	case transaction.KindWithdrawal:
		// A rejected withdrawal can still be disputed later.
		disputable[tx.ID] = tx
		if err := acc.Withdraw(tx.Amount.Decimal); err != nil {
			return ignored(tx, ReasonInsufficientFunds)
		}
		return applied(tx)
	}

	source, ok := disputable[tx.ID]
	if !ok {
		return ignored(tx, ReasonUnlinked)
	}
	amount := disputedAmount(source)

	switch tx.Kind {
	case transaction.KindDispute:
		acc.Dispute(amount)
	case transaction.KindResolve:
		acc.Resolve(amount)
	case transaction.KindChargeback:
		acc.Chargeback(amount)
	default:
		return ignored(tx, ReasonUnlinked)
	}
	return applied(tx)
}

// disputedAmount is the amount a dispute, resolve or chargeback moves for
// source: a deposit's signed value as is, a withdrawal's signed value negated.
func disputedAmount(source transaction.Transaction) decimal.Decimal {
	if source.Kind == transaction.KindWithdrawal {
		return source.Signed().Neg()
	}
	return source.Signed()
}
