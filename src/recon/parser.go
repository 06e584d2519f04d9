package recon

import (
	"regexp"
	"strings"

	"github.com/username/moneydesk/backend/src/models"
)

// phonePattern matches a Vietnamese mobile number: 10 or 11 digits starting
// with 0, anywhere on the line.
var phonePattern = regexp.MustCompile(`0\d{9,10}`)

// ParserConfig carries the column-layout assumptions of the pasted export.
// The finance team's spreadsheet puts the amount in the second tab column,
// but the layout is configuration, not a constant.
type ParserConfig struct {
	MoneyColumn int
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{MoneyColumn: 1}
}

// ParseRows splits pasted tab/newline-delimited text into rows. Per line:
// thousands-separator commas are stripped, the first tab column is the raw
// order id, the amount column is reduced to digits, and the whole line is
// scanned for a phone number. Lines yielding neither an id nor a phone are
// dropped silently.
func ParseRows(text string, cfg ParserConfig) []models.PastedRow {
	var rows []models.PastedRow
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		clean := strings.ReplaceAll(line, ",", "")
		cols := strings.Split(clean, "\t")

		rawID := strings.TrimSpace(cols[0])
		phone := phonePattern.FindString(clean)

		money := ""
		if cfg.MoneyColumn >= 0 && cfg.MoneyColumn < len(cols) {
			money = digitsOnly(cols[cfg.MoneyColumn])
		}

		if rawID == "" && phone == "" {
			continue
		}
		rows = append(rows, models.PastedRow{
			RawID:        rawID,
			Phone:        phone,
			Money:        money,
			OriginalLine: line,
		})
	}
	return rows
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
