package engine

import "testing"

func TestFoldText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Nguyễn Văn A", "nguyen van a"},
		{"NGUYỄN", "nguyen"},
		{"Đặng Thị Hồng", "dang thi hong"},
		{"Vietcombank", "vietcombank"},
		{"chuyển khoản", "chuyen khoan"},
		{"", ""},
		{"123,000", "123,000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FoldText(tt.input); got != tt.want {
				t.Errorf("FoldText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
