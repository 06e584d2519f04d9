package recon

import (
	"testing"

	"github.com/username/moneydesk/backend/src/models"
)

func TestParseRows(t *testing.T) {
	text := "NJD/2025/100\t50,000\tghi chú\n" +
		"\t10,000\tkhách 0907654321\r\n" +
		"GHOST1\t1,000\t0999999999\n" +
		"\n" +
		"   \n" +
		"\tno usable id or phone\n"

	rows := ParseRows(text, DefaultParserConfig())
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}

	want := []models.PastedRow{
		{RawID: "NJD/2025/100", Phone: "", Money: "50000"},
		{RawID: "", Phone: "0907654321", Money: "10000"},
		{RawID: "GHOST1", Phone: "0999999999", Money: "1000"},
	}
	for i, w := range want {
		got := rows[i]
		if got.RawID != w.RawID || got.Phone != w.Phone || got.Money != w.Money {
			t.Errorf("row %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestParseRowsStripsThousandsSeparators(t *testing.T) {
	rows := ParseRows("A1\t1,234,567", DefaultParserConfig())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Money != "1234567" {
		t.Errorf("money = %q, want 1234567", rows[0].Money)
	}
}

func TestParseRowsConfigurableMoneyColumn(t *testing.T) {
	rows := ParseRows("A1\tnote\t99,000", ParserConfig{MoneyColumn: 2})
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Money != "99000" {
		t.Errorf("money = %q, want 99000", rows[0].Money)
	}
}

func TestParseRowsMissingMoneyColumn(t *testing.T) {
	rows := ParseRows("A1", DefaultParserConfig())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Money != "" {
		t.Errorf("money = %q, want empty", rows[0].Money)
	}
}

func TestParseRowsPhoneHeuristics(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"ten digits", "x\t1\tcall 0901234567 now", "0901234567"},
		{"eleven digits", "x\t1\t01234567890", "01234567890"},
		{"not starting with zero", "x\t1\t9012345678", ""},
		{"phone split by comma is joined", "x\t1\t090,1234,567", "0901234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := ParseRows(tt.line, DefaultParserConfig())
			if len(rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(rows))
			}
			if rows[0].Phone != tt.want {
				t.Errorf("phone = %q, want %q", rows[0].Phone, tt.want)
			}
		})
	}
}
