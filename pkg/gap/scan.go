package gap

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

/*
Scan は給油記録のAV7伝票番号列から欠番を検出し、欠番が発生した時間帯に
出発した未記録フライトを候補として対応付けます。

手順は次の通りです。伝票番号の昇順に並べた隣接ペアの差が1を超えていれば
欠番です。ただし差が SeriesJumpThreshold を超える場合は別冊の伝票帳への
移行とみなし、欠番として報告しません。欠番を挟む2つの給油時刻から時刻
ウィンドウを作り(逆順なら入れ替え)、前後 SlackMinutes 分広げた範囲に
出発予定時刻が入る未記録フライトを候補として列挙します。
*/
func Scan(ctx context.Context, receipts []Receipt, schedule []ScheduleEntry, opts Options) (*Report, error) {
	opts = opts.normalized()

	sorted := make([]Receipt, len(receipts))
	copy(sorted, receipts)
	slices.SortStableFunc(sorted, func(a, b Receipt) int {
		return cmp.Compare(a.Number, b.Number)
	})

	recorded := lo.SliceToMap(sorted, func(r Receipt) (string, struct{}) {
		return r.FlightKey, struct{}{}
	})

	// 記録済み・除外・時刻不明のフライトを除いた候補プール
	pool := lo.Filter(schedule, func(e ScheduleEntry, _ int) bool {
		if !e.STD.Known {
			return false
		}
		if _, ok := recorded[e.FlightKey]; ok {
			return false
		}
		if _, ok := opts.IgnoreFlights[e.FlightKey]; ok {
			return false
		}
		return true
	})

	report := &Report{}
	totalPairs := max(len(sorted)-1, 0)

	for i := 0; i+1 < len(sorted); i++ {
		if i%256 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		cur, next := sorted[i], sorted[i+1]
		gapSize := next.Number - cur.Number
		if gapSize <= 1 {
			continue
		}
		if gapSize > opts.SeriesJumpThreshold {
			report.SeriesJumps++
			continue
		}
		if !cur.Refueled.Known || !next.Refueled.Known {
			report.WindowsSkipped++
			continue
		}

		start, end, logic := windowBounds(cur.Refueled, next.Refueled)
		lowMins := start.Minutes - opts.SlackMinutes
		highMins := end.Minutes + opts.SlackMinutes

		candidates := lo.FilterMap(pool, func(e ScheduleEntry, _ int) (string, bool) {
			if e.STD.Minutes < lowMins || e.STD.Minutes > highMins {
				return "", false
			}
			return fmt.Sprintf("%s (%s)", e.Flight, e.STD), true
		})

		rendered := NoFlightsFound
		if len(candidates) > 0 {
			rendered = strings.Join(candidates, ", ")
		}

		report.GapsFound++

		for n := cur.Number + 1; n < next.Number; n++ {
			if _, ok := opts.IgnoreAV7s[n]; ok {
				continue
			}
			report.Predictions = append(report.Predictions, Prediction{
				MissingAV7:       n,
				WindowLogic:      logic,
				WindowStart:      start.String(),
				WindowEnd:        end.String(),
				PotentialFlights: rendered,
			})
		}

		if opts.Progress != nil && i%64 == 0 {
			opts.Progress(Update{
				PairsScanned: i + 1,
				TotalPairs:   totalPairs,
				Predictions:  len(report.Predictions),
			})
		}
	}

	if opts.Progress != nil {
		opts.Progress(Update{
			PairsScanned: totalPairs,
			TotalPairs:   totalPairs,
			Predictions:  len(report.Predictions),
		})
	}

	return report, nil
}

// windowBounds は2つの給油時刻から探索ウィンドウの両端を決めます。
// 後の伝票の時刻が前より早い場合は入れ替え、その旨を WindowLogic で示します。
func windowBounds(prev, next Clock) (start, end Clock, logic string) {
	if next.Before(prev) {
		return next, prev, WindowLogicSwapped
	}
	return prev, next, WindowLogicNormal
}
