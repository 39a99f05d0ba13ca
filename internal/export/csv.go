// Package export projects transactions and the activity log into files
// meant for spreadsheet apps: CSV through encoding/csv and XLSX through
// excelize.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"finanzas/internal/core"
)

var (
	TransactionHeader = []string{"Fecha", "Usuario", "Descripción", "Categoría", "Necesidad", "Monto", "Items", "Notas"}
	ActivityHeader    = []string{"Fecha", "Tipo", "Descripción", "Monto", "Categoría", "Necesidad", "Usuario"}
)

// ActivityTimeLayout renders activity timestamps.
const ActivityTimeLayout = "02/01/2006 15:04:05"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Options struct {
	// BOM prefixes the output with a UTF-8 byte order mark so spreadsheet
	// apps detect the encoding of accented text.
	BOM bool
}

func transactionRow(tx core.Transaction) []string {
	return []string{
		tx.Date.String(),
		tx.Profile,
		tx.Description,
		tx.Category,
		tx.Necessity,
		strconv.FormatInt(tx.Amount, 10),
		tx.Items,
		tx.Notes,
	}
}

func activityRow(e core.ActivityEntry, loc *time.Location) []string {
	amount := ""
	if e.Detail.Amount != 0 {
		amount = strconv.FormatInt(e.Detail.Amount, 10)
	}
	return []string{
		e.At.In(loc).Format(ActivityTimeLayout),
		string(e.Kind),
		e.Summary,
		amount,
		e.Detail.Category,
		e.Detail.Necessity,
		e.ProfileName,
	}
}

// WriteTransactionsCSV writes the header and one row per transaction.
// Fields with commas, quotes or newlines are quoted.
func WriteTransactionsCSV(w io.Writer, txs []core.Transaction, opts Options) error {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionRow(tx))
	}
	return writeCSV(w, TransactionHeader, rows, opts)
}

// WriteActivityCSV writes the activity log with timestamps rendered in loc.
func WriteActivityCSV(w io.Writer, entries []core.ActivityEntry, loc *time.Location, opts Options) error {
	if loc == nil {
		loc = time.Local
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, activityRow(e, loc))
	}
	return writeCSV(w, ActivityHeader, rows, opts)
}

func TransactionsCSV(txs []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTransactionsCSV(&buf, txs, Options{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ActivityCSV(entries []core.ActivityEntry, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteActivityCSV(&buf, entries, loc, Options{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCSV(w io.Writer, header []string, rows [][]string, opts Options) error {
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write bom: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
