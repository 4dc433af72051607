package ledger

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/congo-pay/txengine/internal/account"
	"github.com/congo-pay/txengine/internal/transaction"
)

// Ledger owns every client account and replays batches of transactions
// against them. It is safe for concurrent use; batches are applied one at a
// time.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[transaction.ClientID]*account.Account
	rounding account.Rounding
	workers  int
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithRounding sets the rounding policy of every account the ledger creates.
func WithRounding(r account.Rounding) Option {
	return func(l *Ledger) {
		l.rounding = r
	}
}

// WithWorkers replays up to n client groups concurrently. Values below 2
// keep replay sequential.
func WithWorkers(n int) Option {
	return func(l *Ledger) {
		l.workers = n
	}
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[transaction.ClientID]*account.Account),
		rounding: account.RoundHalfUp,
		workers:  1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Process applies one batch. Records are grouped by client and each group is
// replayed in input order against that client's account. The only error is
// ctx cancellation, observed before each group starts; groups already
// replayed keep their effects.
func (l *Ledger) Process(ctx context.Context, txs []transaction.Transaction) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	outcomes := make([]Outcome, len(txs))
	groups := groupTransactions(txs, outcomes)

	accounts := make([]*account.Account, len(groups))
	wasLocked := make([]bool, len(groups))
	for i, g := range groups {
		accounts[i] = l.accountFor(g.client)
		wasLocked[i] = accounts[i].Locked()
	}

	if err := l.replayGroups(ctx, groups, accounts, outcomes); err != nil {
		return Result{Outcomes: outcomes}, err
	}

	res := Result{Outcomes: outcomes}
	for i, g := range groups {
		if !wasLocked[i] && accounts[i].Locked() {
			res.Locked = append(res.Locked, g.client)
		}
	}
	slices.Sort(res.Locked)
	return res, nil
}

func (l *Ledger) replayGroups(ctx context.Context, groups []*group, accounts []*account.Account, outcomes []Outcome) error {
	if l.workers < 2 || len(groups) < 2 {
		for i, g := range groups {
			if err := ctx.Err(); err != nil {
				return err
			}
			replay(accounts[i], g, outcomes)
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(l.workers)
	for i, g := range groups {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			replay(accounts[i], g, outcomes)
			return nil
		})
	}
	return eg.Wait()
}

// accountFor returns the client's account, creating it on first reference.
// Callers must hold l.mu for writing.
func (l *Ledger) accountFor(client transaction.ClientID) *account.Account {
	acc, ok := l.accounts[client]
	if !ok {
		acc = account.New(l.rounding)
		l.accounts[client] = acc
	}
	return acc
}
