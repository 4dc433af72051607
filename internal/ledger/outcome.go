package ledger

import "github.com/congo-pay/txengine/internal/transaction"

// Status tells whether a record changed account state.
type Status int

const (
	StatusApplied Status = iota
	StatusIgnored
)

func (s Status) String() string {
	if s == StatusApplied {
		return "applied"
	}
	return "ignored"
}

// Reason explains why a record was ignored.
type Reason string

const (
	ReasonNone Reason = ""
	// ReasonUnknownTransaction marks a dispute, resolve or chargeback whose tx
	// was never seen as a deposit or withdrawal of the same client.
	ReasonUnknownTransaction Reason = "unknown_transaction"
	// ReasonUnlinked marks a reference that found no disputable record during replay.
	ReasonUnlinked Reason = "unlinked_reference"
	// ReasonInsufficientFunds marks a withdrawal rejected by the account.
	ReasonInsufficientFunds Reason = "insufficient_funds"
	// ReasonAccountLocked marks records addressed to a locked account.
	ReasonAccountLocked Reason = "account_locked"
)

// Outcome records what happened to a single input record.
type Outcome struct {
	Transaction transaction.Transaction
	Status      Status
	Reason      Reason
}

func applied(tx transaction.Transaction) Outcome {
	return Outcome{Transaction: tx, Status: StatusApplied}
}

func ignored(tx transaction.Transaction, reason Reason) Outcome {
	return Outcome{Transaction: tx, Status: StatusIgnored, Reason: reason}
}

// Result summarizes one processed batch.
type Result struct {
	// Outcomes holds one entry per input record, in input order.
	Outcomes []Outcome
	// Locked lists the clients this batch moved into the locked state, ascending.
	Locked []transaction.ClientID
}

// Applied counts records that changed account state.
func (r Result) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusApplied {
			n++
		}
	}
	return n
}

// Ignored counts records that left account state untouched.
func (r Result) Ignored() int {
	return len(r.Outcomes) - r.Applied()
}

// IgnoredByReason groups ignored records by reason.
func (r Result) IgnoredByReason() map[Reason]int {
	counts := make(map[Reason]int)
	for _, o := range r.Outcomes {
		if o.Status == StatusIgnored {
			counts[o.Reason]++
		}
	}
	return counts
}
