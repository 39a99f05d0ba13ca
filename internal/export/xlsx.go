package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"finanzas/internal/core"
)

const TransactionsSheet = "Transacciones"

var transactionColumnWidths = map[string]float64{
	"A": 12, "B": 14, "C": 30, "D": 20, "E": 12, "F": 12, "G": 24, "H": 30,
}

// WriteTransactionsXLSX writes the transaction table as a workbook with a
// single sheet. Amounts are stored as numbers.
func WriteTransactionsXLSX(w io.Writer, txs []core.Transaction) error {
	f, err := TransactionsWorkbook(txs)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// TransactionsWorkbook builds the workbook. The caller closes it.
func TransactionsWorkbook(txs []core.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), TransactionsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for i, h := range TransactionHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(TransactionsSheet, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
	}

	for r, tx := range txs {
		row := r + 2
		values := []any{
			tx.Date.String(),
			tx.Profile,
			tx.Description,
			tx.Category,
			tx.Necessity,
			tx.Amount,
			tx.Items,
			tx.Notes,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(TransactionsSheet, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	for col, width := range transactionColumnWidths {
		if err := f.SetColWidth(TransactionsSheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("set width %s: %w", col, err)
		}
	}
	return f, nil
}
