package gap

import (
	"strconv"
	"strings"
	"time"
)

// CleanFlightNumber は便名から英数字以外を取り除き大文字に正規化します。
// "6E-123 " と "6e123" は同じ便として照合されます。
func CleanFlightNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		}
	}
	return b.String()
}

// ParseRefuelClock は給油記録の時刻欄 (HH:MM:SS) を解釈します。
// 秒は窓計算にも表示にも使われないため切り捨てます。
func ParseRefuelClock(s string) Clock {
	t, err := time.Parse("15:04:05", strings.TrimSpace(s))
	if err != nil {
		return Clock{}
	}
	return NewClock(t.Hour(), t.Minute())
}

// ParseSTDClock はスケジュールの出発予定時刻欄を解釈します。
// Excel由来の揺れを吸収するため、小数点以下を捨て、4桁に0詰めした上で
// HHMM、次いで HH:MM として解釈を試みます。
func ParseSTDClock(s string) Clock {
	s, _, _ = strings.Cut(s, ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}
	}
	for len(s) < 4 {
		s = "0" + s
	}
	if t, err := time.Parse("1504", s); err == nil {
		return NewClock(t.Hour(), t.Minute())
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return NewClock(t.Hour(), t.Minute())
	}
	return Clock{}
}

// ParseIgnoreAV7s はカンマ区切りの除外伝票番号リストを解釈します。
// 各要素は数字以外を除去してから読み取るため "AV 890100" も受け付けます。
func ParseIgnoreAV7s(s string) map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, item := range strings.Split(s, ",") {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, item)
		if digits == "" {
			continue
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		out[n] = struct{}{}
	}
	return out
}

// ParseIgnoreFlights はカンマ区切りの除外便名リストを正規化して返します。
func ParseIgnoreFlights(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, item := range strings.Split(s, ",") {
		if cleaned := CleanFlightNumber(item); cleaned != "" {
			out[cleaned] = struct{}{}
		}
	}
	return out
}

// ParseIgnorePrefixes はカンマ区切りの除外プレフィックスリストを返します。
func ParseIgnorePrefixes(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if p := strings.TrimSpace(item); p != "" {
			out = append(out, p)
		}
	}
	return out
}
