package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/HMasataka/avgap/pkg/gap"
)

var (
	// ErrMissingColumns pasted data lacks one of the required headers
	ErrMissingColumns = errors.New("missing required columns")
)

var (
	receiptColumns  = []string{"AV7", "Flight", "Refuel_Time"}
	scheduleColumns = []string{"Flight", "STD"}
)

func ReadReceipts(r io.Reader) ([]gap.ReceiptRow, error) {
	idx, rows, err := readTable(r, "refuel", receiptColumns)
	if err != nil {
		return nil, err
	}

	out := make([]gap.ReceiptRow, 0, len(rows))

	for _, row := range rows {
		out = append(out, gap.ReceiptRow{
			AV7:        cell(row, idx["AV7"]),
			Flight:     cell(row, idx["Flight"]),
			RefuelTime: cell(row, idx["Refuel_Time"]),
		})
	}

	return out, nil
}

func ReadSchedule(r io.Reader) ([]gap.ScheduleRow, error) {
	idx, rows, err := readTable(r, "schedule", scheduleColumns)
	if err != nil {
		return nil, err
	}

	out := make([]gap.ScheduleRow, 0, len(rows))

	for _, row := range rows {
		out = append(out, gap.ScheduleRow{
			Flight: cell(row, idx["Flight"]),
			STD:    cell(row, idx["STD"]),
		})
	}

	return out, nil
}

func readTable(r io.Reader, name string, required []string) (map[string]int, [][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, missingColumns(name, nil, required)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", name, err)
	}

	found := make([]string, 0, len(header))
	idx := make(map[string]int, len(header))

	for i, col := range header {
		col = strings.TrimSpace(col)
		found = append(found, col)

		if _, ok := idx[col]; !ok {
			idx[col] = i
		}
	}

	missing := lo.Filter(required, func(col string, _ int) bool {
		_, ok := idx[col]
		return !ok
	})
	if len(missing) > 0 {
		return nil, nil, missingColumns(name, found, required)
	}

	var rows [][]string

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s row: %w", name, err)
		}

		rows = append(rows, row)
	}

	return idx, rows, nil
}

func missingColumns(name string, found, expected []string) error {
	return fmt.Errorf("%w in %s data: found %v, expected %v", ErrMissingColumns, name, found, expected)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}

	return row[i]
}
