package restock

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Line is one delivered item: "<name> <quantity> <unit>".
type Line struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Raw      string          `json:"raw"`
}

var linePattern = regexp.MustCompile(`^(.*?\S)\s+(\d+(?:[.,]\d+)?)\s*([^\d\s.]+)\.?$`)

// ErrMalformedNote is returned when a delivery note cannot be read line by
// line, for instance when a single line exceeds the scanner's buffer.
var ErrMalformedNote = errors.New("malformed delivery note")

// ParseLines extracts item lines from a delivery note. Lines that do not look
// like items (headers, totals, blank lines) are returned as skipped.
func ParseLines(text string) ([]Line, []string, error) {
	var (
		lines   []Line
		skipped []string
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		m := linePattern.FindStringSubmatch(raw)
		if m == nil {
			skipped = append(skipped, raw)
			continue
		}
		qty, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", "."))
		if err != nil || !qty.IsPositive() {
			skipped = append(skipped, raw)
			continue
		}

		lines = append(lines, Line{
			Name:     strings.Trim(strings.TrimSpace(m[1]), "-:."),
			Quantity: qty.Round(2),
			Unit:     m[3],
			Raw:      raw,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedNote, err)
	}
	return lines, skipped, nil
}

var unitAliases = map[string]string{
	"kgs":    "kg",
	"kilo":   "kg",
	"kilos":  "kg",
	"gr":     "g",
	"grs":    "g",
	"gramos": "g",
	"lt":     "l",
	"lts":    "l",
	"litro":  "l",
	"litros": "l",
	"u":      "ud",
	"uds":    "ud",
	"unidad": "ud",
}

func canonicalUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}

// SameUnit compares units ignoring case and common spellings.
func SameUnit(a, b string) bool {
	return canonicalUnit(a) == canonicalUnit(b)
}
