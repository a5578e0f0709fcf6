package gap

import (
	"math"
	"strconv"
	"strings"
)

// ReceiptRow は貼り付けデータから取り出した給油記録1行の生の値です。
type ReceiptRow struct {
	AV7        string
	Flight     string
	RefuelTime string
}

// ScheduleRow は貼り付けデータから取り出したスケジュール1行の生の値です。
type ScheduleRow struct {
	Flight string
	STD    string
}

// ParseStats は取り込み件数の内訳です。RowsRead はプレフィックス除外後、
// RowsValid はさらにAV7欄が数値として読めた行数です。
type ParseStats struct {
	RowsRead  int
	RowsValid int
}

// ParseReceiptRows は生の給油記録行を検証済みの Receipt 列に変換します。
// 除外プレフィックスに一致する行を落とした後、AV7欄を数値として読み取り、
// 読めない行は捨てて件数だけ数えます。伝票番号の小数部は切り捨てます。
func ParseReceiptRows(rows []ReceiptRow, ignorePrefixes []string) ([]Receipt, ParseStats) {
	var stats ParseStats
	receipts := make([]Receipt, 0, len(rows))

	for _, row := range rows {
		if matchesPrefix(row.AV7, ignorePrefixes) {
			continue
		}
		stats.RowsRead++

		n, ok := parseReceiptNumber(row.AV7)
		if !ok {
			continue
		}
		stats.RowsValid++

		receipts = append(receipts, Receipt{
			Number:    n,
			Flight:    row.Flight,
			FlightKey: CleanFlightNumber(row.Flight),
			Refueled:  ParseRefuelClock(row.RefuelTime),
		})
	}

	return receipts, stats
}

// ParseScheduleRows は生のスケジュール行を ScheduleEntry 列に変換します。
// STD が読めない行も保持されますが、候補検索の対象にはなりません。
func ParseScheduleRows(rows []ScheduleRow) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ScheduleEntry{
			Flight:    row.Flight,
			FlightKey: CleanFlightNumber(row.Flight),
			STD:       ParseSTDClock(row.STD),
		})
	}
	return entries
}

func matchesPrefix(raw string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(raw, p) {
			return true
		}
	}
	return false
}

// parseReceiptNumber はAV7欄を数値として読み取ります。Excel経由で
// "890100.0" のような形になった値も受け付けます。
func parseReceiptNumber(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
