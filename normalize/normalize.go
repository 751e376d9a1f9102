package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	rangeSplitRegex = regexp.MustCompile(`[-–—]`)
	percentRegex    = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?%`)
	leadingFloat    = regexp.MustCompile(`^-?(?:\d+(?:\.\d*)?|\.\d+)`)

	spaceReplacer = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2009", " ", "\u2007", " ")
	minusReplacer = strings.NewReplacer("\u2212", "-")

	yesTokens = []string{"да", "есть", "yes"}
	noTokens  = []string{"нет", "отсутствует", "no"}
)

// Text collapses non-breaking spaces and whitespace runs to single spaces and trims.
func Text(s string) string {
	s = spaceReplacer.Replace(s)
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Number parses a locale-formatted number such as "52,7 м²" or "12 500 000 ₽".
// A comma followed by one or two digits is a decimal separator; any other comma
// is a grouping mark and is dropped. Returns nil when nothing parses.
func Number(s string) *float64 {
	s = minusReplacer.Replace(s)

	var kept []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == ',' || c == '.' || c == '-' {
			kept = append(kept, c)
		}
	}

	var b strings.Builder
	for i := 0; i < len(kept); i++ {
		c := kept[i]
		if c != ',' {
			b.WriteByte(c)
			continue
		}
		digits := 0
		for j := i + 1; j < len(kept) && kept[j] >= '0' && kept[j] <= '9'; j++ {
			digits++
		}
		if digits >= 1 && digits <= 2 {
			b.WriteByte('.')
		}
	}

	m := leadingFloat.FindString(b.String())
	if m == "" {
		return nil
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// Range splits "37,1 – 45,3 млн ₽" on hyphen, en dash or em dash and parses
// each side on its own. Either bound may be nil.
func Range(s string) (min, max *float64) {
	parts := rangeSplitRegex.Split(Text(s), -1)
	if len(parts) > 0 {
		if p := strings.TrimSpace(parts[0]); p != "" {
			min = Number(p)
		}
	}
	if len(parts) > 1 {
		if p := strings.TrimSpace(parts[1]); p != "" {
			max = Number(p)
		}
	}
	return min, max
}

// Percent returns the first number directly followed by a percent sign.
func Percent(s string) *float64 {
	m := percentRegex.FindString(minusReplacer.Replace(Text(s)))
	if m == "" {
		return nil
	}
	n := Number(strings.TrimPrefix(strings.TrimSuffix(m, "%"), "+"))
	return n
}

// YesNo maps affirmative and negative tokens to a bool. Anything else is nil.
func YesNo(s string) *bool {
	v := Text(s)
	if v == "" {
		return nil
	}
	for _, t := range yesTokens {
		if strings.EqualFold(v, t) {
			b := true
			return &b
		}
	}
	for _, t := range noTokens {
		if strings.EqualFold(v, t) {
			b := false
			return &b
		}
	}
	return nil
}

// CountBefore finds the number immediately preceding a keyword stem, e.g.
// CountBefore("14 пассажирских, 18 грузовых", "грузов") == 18.
func CountBefore(s, keyword string) *float64 {
	re, err := regexp.Compile(`(?i)(\d+[.,]?\d*)\s*` + regexp.QuoteMeta(keyword))
	if err != nil {
		return nil
	}
	m := re.FindStringSubmatch(Text(s))
	if len(m) < 2 {
		return nil
	}
	return Number(m[1])
}

// Format renders a parsed number back to text, the inverse used by
// idempotence checks and log output.
func Format(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
