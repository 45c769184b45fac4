package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/scoracle-averages/internal/record"
)

// ---- value rules ----

var (
	integerText = regexp.MustCompile(`^-?\d+$`)
	floatInt    = regexp.MustCompile(`^(-?\d+)\.0*$`)
	decimalText = regexp.MustCompile(`^(\d*)(?:\.(\d*))?$`)
)

// Defloat returns s re-rendered as an integer: "12.0" becomes "12". Any
// other non-integer text is ErrNotInteger.
func Defloat(s string) (string, error) {
	s = strings.TrimSpace(s)
	if integerText.MatchString(s) {
		return s, nil
	}
	if m := floatInt.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	return "", ErrNotInteger
}

// NormalizePercent renders a rate with three decimals and no leading zero:
// ".5" -> ".500", "0.2754" -> ".275", "1" -> "1.000", "0" -> ".000".
// Applying it twice gives the same result.
func NormalizePercent(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "1":
		s = "1.000"
	case "0":
		s = "0.000"
	}
	m := decimalText.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return "", ErrNotNumeric
	}
	whole, frac := m[1], m[2]
	if len(frac) > 3 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", ErrNotNumeric
		}
		whole, frac, _ = strings.Cut(strconv.FormatFloat(f, 'f', 3, 64), ".")
	}
	frac += strings.Repeat("0", 3-len(frac))
	whole = strings.TrimLeft(whole, "0")
	return whole + "." + frac, nil
}

// NormalizeERA pads the fractional part to two digits with trailing
// zeros: "3" -> "3.00", "2.5" -> "2.50". Longer fractions are kept.
func NormalizeERA(s string) string {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if len(frac) < 2 {
		frac += strings.Repeat("0", 2-len(frac))
	}
	return whole + "." + frac
}

// NormalizeDate renders a date as YYYY-MM-DD. Eight digits are a full
// date; four are MMDD in the season; two are a day in defaultMonth, and
// without one they are ErrAmbiguousDate. Three digits are MMDD whose
// leading zero was lost to a numeric cell.
func NormalizeDate(s, season string, defaultMonth int) (string, error) {
	s, err := Defloat(s)
	if err != nil || strings.HasPrefix(s, "-") {
		return "", ErrInvalidDate
	}
	if len(s) == 3 {
		s = "0" + s
	}
	var out string
	switch len(s) {
	case 8:
		out = s[:4] + "-" + s[4:6] + "-" + s[6:]
	case 4:
		if len(season) != 4 {
			return "", fmt.Errorf("%w: no season to complete %s", ErrInvalidDate, s)
		}
		out = season + "-" + s[:2] + "-" + s[2:]
	case 2:
		if defaultMonth == 0 {
			return "", ErrAmbiguousDate
		}
		if len(season) != 4 {
			return "", fmt.Errorf("%w: no season to complete %s", ErrInvalidDate, s)
		}
		out = fmt.Sprintf("%s-%02d-%s", season, defaultMonth, s)
	default:
		return "", ErrInvalidDate
	}
	if _, err := time.Parse(time.DateOnly, out); err != nil {
		return "", ErrInvalidDate
	}
	return out, nil
}

var nameGlyphs = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"’", "'",
)

// NormalizeName replaces typographic quotes left by transcription.
func NormalizeName(s string) string {
	return nameGlyphs.Replace(s)
}

// ---- field classification ----

var familyPrefix = regexp.MustCompile(`^[a-z]+\d+_`)

// fieldCode strips the group and family prefixes: totals_B_AVG and
// club2_B_G give B_AVG and B_G.
func fieldCode(key string) string {
	key = strings.TrimPrefix(key, "totals_")
	return familyPrefix.ReplaceAllString(key, "")
}

var nonIntegerCodes = map[string]bool{
	"B_AVG": true, "B_SLG": true, "B_OBP": true, "B_IP": true,
	"P_AVG": true, "P_IP": true, "P_ERA": true, "P_RPG": true, "P_HPG": true,
	"F_POS": true, "F_INN": true,
}

func isDateField(code string) bool {
	return strings.HasSuffix(code, "_FIRST") || strings.HasSuffix(code, "_LAST")
}

func isPercentField(code string) bool {
	switch code {
	case "B_AVG", "B_SLG", "B_OBP", "P_AVG":
		return true
	}
	return strings.HasSuffix(code, "_PCT")
}

func isIntegerField(code string) bool {
	switch code {
	case fieldSeason, "S_ORDER", "S_STINT":
		return true
	}
	if len(code) < 3 || code[1] != '_' || !strings.ContainsRune("BPFMR", rune(code[0])) {
		return false
	}
	return !nonIntegerCodes[code] && !isPercentField(code) && !strings.HasSuffix(code, "_RANK")
}

// ---- row normalizer ----

// normalizer applies the value rules to every field of a logical row.
type normalizer struct {
	sheet        string
	defaultMonth int
	diag         *Diagnostics
}

// season resolves and re-renders the row's league_season.
func (n *normalizer) season(r Row) (string, error) {
	v := r.Fields.Value(fieldSeason)
	if v.IsNull() {
		return "", nil
	}
	s, err := Defloat(v.Text())
	if err != nil {
		return "", &RowError{Sheet: n.sheet, Row: r.Number, Field: fieldSeason, Value: v.Text(), Err: err}
	}
	r.Fields.Set(fieldSeason, record.String(s))
	return s, nil
}

// fields normalizes fields in place. Non-integer values in integer fields
// are returned as fatal; bad dates are recorded and left as found.
func (n *normalizer) fields(row int, fields *record.Map, season string) error {
	for _, k := range fields.Keys() {
		v := fields.Value(k)
		if v.Kind() != record.KindString {
			continue
		}
		text := v.Text()
		code := fieldCode(k)
		switch {
		case isDateField(code):
			d, err := NormalizeDate(text, season, n.defaultMonth)
			if err != nil {
				n.diag.AddError(&RowError{Sheet: n.sheet, Row: row, Field: k, Value: text, Err: err})
				continue
			}
			fields.Set(k, record.String(d))
		case isIntegerField(code):
			i, err := Defloat(text)
			if err != nil {
				return &RowError{Sheet: n.sheet, Row: row, Field: k, Value: text, Err: err}
			}
			fields.Set(k, record.String(i))
		case isPercentField(code):
			p, err := NormalizePercent(text)
			if err != nil {
				n.diag.AddWarning(CodeNotNumeric, n.sheet, row, k, fmt.Sprintf("%s %q left as is", k, text))
				continue
			}
			fields.Set(k, record.String(p))
		case code == "P_ERA":
			fields.Set(k, record.String(NormalizeERA(text)))
		case strings.HasPrefix(k, "name_"):
			fields.Set(k, record.String(NormalizeName(text)))
		}
	}
	return nil
}
