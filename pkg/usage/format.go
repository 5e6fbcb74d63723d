package usage

import "fmt"

// HumanTokens renders a token count compactly: 950, 1.2k, 3.4M.
func HumanTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1fM", float64(n)/1_000_000))
	case n >= 1_000:
		return trimZero(fmt.Sprintf("%.1fk", float64(n)/1_000))
	default:
		return fmt.Sprintf("%d", n)
	}
}

// GroupedInt renders a count with thousands separators: 1,234,567.
func GroupedInt(n int) string {
	if n < 0 {
		return "-" + GroupedInt(-n)
	}
	s := fmt.Sprintf("%d", n)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

// FormatAggregate renders one aggregate on a single line.
func FormatAggregate(agg Aggregate) string {
	line := fmt.Sprintf("%d calls, %s prompt + %s completion = %s tokens",
		agg.Calls,
		HumanTokens(agg.PromptTokens),
		HumanTokens(agg.CompletionTokens),
		HumanTokens(agg.TotalTokens))
	if agg.UnknownCalls > 0 {
		line += fmt.Sprintf(" (%d calls unreported)", agg.UnknownCalls)
	}
	return line
}

func trimZero(s string) string {
	// 1.0k reads better as 1k
	if len(s) > 3 && s[len(s)-3:len(s)-1] == ".0" {
		return s[:len(s)-3] + s[len(s)-1:]
	}
	return s
}
