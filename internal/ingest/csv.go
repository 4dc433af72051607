package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/txengine/internal/transaction"
)

// ErrInvalidInput wraps every rejection of the transaction source.
var ErrInvalidInput = errors.New("invalid transaction input")

const (
	columnType   = "type"
	columnClient = "client"
	columnTx     = "tx"
	columnAmount = "amount"
)

// ReadFile reads transactions from the CSV file at path.
func ReadFile(path string) ([]transaction.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidInput, path, err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a CSV stream with a header row naming the type, client, tx
// and optional amount columns. Fields are trimmed and rows may omit a
// trailing empty amount. The first malformed record aborts the read.
func Read(r io.Reader) ([]transaction.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidInput, err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	var txs []transaction.Transaction
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return txs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		line, _ := reader.FieldPos(0)

		tx, err := cols.parse(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidInput, line, err)
		}
		txs = append(txs, tx)
	}
}

type columns struct {
	kind, client, tx, amount int
}

func parseHeader(header []string) (columns, error) {
	cols := columns{kind: -1, client: -1, tx: -1, amount: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case columnType:
			cols.kind = i
		case columnClient:
			cols.client = i
		case columnTx:
			cols.tx = i
		case columnAmount:
			cols.amount = i
		}
	}
	switch {
	case cols.kind < 0:
		return cols, fmt.Errorf("%w: header is missing the %q column", ErrInvalidInput, columnType)
	case cols.client < 0:
		return cols, fmt.Errorf("%w: header is missing the %q column", ErrInvalidInput, columnClient)
	case cols.tx < 0:
		return cols, fmt.Errorf("%w: header is missing the %q column", ErrInvalidInput, columnTx)
	}
	return cols, nil
}

func (c columns) parse(record []string) (transaction.Transaction, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	kind, err := transaction.ParseKind(field(c.kind))
	if err != nil {
		return transaction.Transaction{}, err
	}

	client, err := strconv.ParseUint(field(c.client), 10, 16)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("%s transaction has invalid client %q", kind, field(c.client))
	}
	id, err := strconv.ParseUint(field(c.tx), 10, 32)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("%s transaction has invalid tx %q", kind, field(c.tx))
	}

	tx := transaction.Transaction{
		Kind:   kind,
		Client: transaction.ClientID(client),
		ID:     transaction.TxID(id),
	}
	if raw := field(c.amount); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return transaction.Transaction{}, fmt.Errorf("%s transaction has invalid amount %q", kind, raw)
		}
		tx.Amount = decimal.NewNullDecimal(amount)
	}

	if err := tx.Validate(); err != nil {
		return transaction.Transaction{}, err
	}
	return tx, nil
}
