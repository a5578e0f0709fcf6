package gap

import "fmt"

const (
	// WindowLogicNormal 前の給油時刻が後の給油時刻より早い通常ケース
	WindowLogicNormal = "Normal"
	// WindowLogicSwapped 給油時刻が逆順で記録されていたため入れ替えたケース
	WindowLogicSwapped = "Swapped (Reverse)"

	// NoFlightsFound 時刻ウィンドウ内に未記録フライトが見つからなかった場合の表示文字列
	NoFlightsFound = "No flights found in window"
)

const (
	MinSlackMinutes            = 15
	MaxSlackMinutes            = 120
	DefaultSlackMinutes        = 60
	DefaultSeriesJumpThreshold = 1000
)

// Clock は深夜0時からの経過分として表した時刻です。
// 元データの時刻欄が解釈できなかった場合、Known は false になります。
type Clock struct {
	Minutes int
	Known   bool
}

func NewClock(hour, minute int) Clock {
	return Clock{Minutes: hour*60 + minute, Known: true}
}

// String は HH:MM 形式で返します。未知の時刻は空文字列です。
func (c Clock) String() string {
	if !c.Known {
		return ""
	}
	return clockFormat(c.Minutes)
}

func (c Clock) Before(o Clock) bool {
	return c.Minutes < o.Minutes
}

// Receipt は給油記録1行です。Number はAV7伝票番号、FlightKey は照合用に正規化した便名です。
type Receipt struct {
	Number    int64
	Flight    string
	FlightKey string
	Refueled  Clock
}

// ScheduleEntry はフライトスケジュール1行です。STD は出発予定時刻です。
type ScheduleEntry struct {
	Flight    string
	FlightKey string
	STD       Clock
}

// Options は欠番スキャンの感度と除外設定です。
type Options struct {
	// SlackMinutes はギャップ前後の探索バッファ(分)です。
	SlackMinutes int
	// SeriesJumpThreshold を超える欠番幅は別冊の伝票とみなしてスキップします。
	SeriesJumpThreshold int64

	IgnoreAV7s     map[int64]struct{}
	IgnoreFlights  map[string]struct{}
	IgnorePrefixes []string

	// Progress はスキャン中に呼ばれる任意のフックです。
	Progress func(Update)
}

func DefaultOptions() Options {
	return Options{
		SlackMinutes:        DefaultSlackMinutes,
		SeriesJumpThreshold: DefaultSeriesJumpThreshold,
	}
}

// normalized は未設定値を既定値に、範囲外の値を境界に丸めます。
func (o Options) normalized() Options {
	if o.SlackMinutes == 0 {
		o.SlackMinutes = DefaultSlackMinutes
	}
	if o.SlackMinutes < MinSlackMinutes {
		o.SlackMinutes = MinSlackMinutes
	}
	if o.SlackMinutes > MaxSlackMinutes {
		o.SlackMinutes = MaxSlackMinutes
	}
	if o.SeriesJumpThreshold <= 0 {
		o.SeriesJumpThreshold = DefaultSeriesJumpThreshold
	}
	return o
}

type Update struct {
	PairsScanned int
	TotalPairs   int
	Predictions  int
}

// Prediction は欠番AV7一件の推定結果です。
type Prediction struct {
	MissingAV7       int64
	WindowLogic      string
	WindowStart      string
	WindowEnd        string
	PotentialFlights string
}

// Report はスキャン結果と入力の健全性カウンタです。
type Report struct {
	Predictions []Prediction

	RowsRead  int
	RowsValid int

	GapsFound      int
	SeriesJumps    int
	WindowsSkipped int
}

func clockFormat(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
