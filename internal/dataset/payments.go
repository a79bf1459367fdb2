package dataset

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// PaymentSchedule maps years to the PCF payment offered for installing SBP,
// in euro per hectare.
type PaymentSchedule map[int]float64

// LoadPayments reads the payment schedule. Spreadsheets (.xlsx) and CSV are
// supported; both need a Year column and an sbp_payment column.
func LoadPayments(path string) (PaymentSchedule, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadPaymentsXLSX(path)
	}
	return loadPaymentsCSV(path)
}

func loadPaymentsCSV(path string) (PaymentSchedule, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	yearIdx, ok := columnIndex(header, "Year")
	if !ok {
		return nil, fmt.Errorf("%s: missing Year column", path)
	}
	payIdx, ok := columnIndex(header, "sbp_payment")
	if !ok {
		return nil, fmt.Errorf("%s: missing sbp_payment column", path)
	}

	schedule := make(PaymentSchedule, len(rows))
	for i, row := range rows {
		year, err := parseYear(path, i+2, row[yearIdx])
		if err != nil {
			return nil, err
		}
		pay, err := parseValue(path, "sbp_payment", i+2, row[payIdx])
		if err != nil {
			return nil, err
		}
		schedule[year] = pay
	}
	return schedule, nil
}

func loadPaymentsXLSX(path string) (PaymentSchedule, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s sheet %q: %w", path, sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: sheet %q has no data rows", path, sheet)
	}

	yearIdx, okY := columnIndex(rows[0], "Year")
	payIdx, okP := columnIndex(rows[0], "sbp_payment")
	if !okY || !okP {
		return nil, fmt.Errorf("%s: sheet %q must have Year and sbp_payment columns", path, sheet)
	}

	schedule := make(PaymentSchedule, len(rows)-1)
	for i, row := range rows[1:] {
		// excelize trims trailing empty cells.
		if len(row) <= yearIdx || len(row) <= payIdx || row[yearIdx] == "" {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[yearIdx]))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: invalid year %q", path, i+2, row[yearIdx])
		}
		pay, err := strconv.ParseFloat(strings.TrimSpace(row[payIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: invalid payment %q", path, i+2, row[payIdx])
		}
		schedule[year] = pay
	}
	if len(schedule) == 0 {
		return nil, fmt.Errorf("%s: no payment rows found", path)
	}
	return schedule, nil
}
