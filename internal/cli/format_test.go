package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

func TestFormatNumber(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-4500000: "-4,500,000",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	cases := map[float64]string{
		12.4:      "12",
		1234:      "1.2K",
		1_234_567: "1.2M",
		-2500:     "-2.5K",
	}
	for in, want := range cases {
		if got := FormatCompact(in); got != want {
			t.Errorf("FormatCompact(%g) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMetrics(t *testing.T) {
	got := FormatMetrics(model.ErrorMetrics{MAE: 12.345, RMSE: 20})
	if got != "MAE: 12.35 | RMSE: 20.00" {
		t.Errorf("FormatMetrics = %q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := FormatElapsed(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("1.5s -> %q", got)
	}
	if got := FormatElapsed(125 * time.Second); got != "2m 5s" {
		t.Errorf("125s -> %q", got)
	}
	if got := FormatElapsed(3725 * time.Second); got != "1h 2m" {
		t.Errorf("3725s -> %q", got)
	}
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Store", "Rows"},
		Rows:    [][]string{{"1", "942"}, {"---"}, {"1115", "10"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("lines = %d, want 7:\n%s", len(lines), out)
	}
	for i, l := range lines[1:] {
		if w := len([]rune(stripANSI(l))); w != len([]rune(stripANSI(lines[0]))) {
			t.Errorf("line %d width %d differs from top border", i+1, w)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{1, 2, 3}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q, want ▁▄█", got)
	}
	if got := RenderSparkline([]float64{5, 5}); got != "▁▁" {
		t.Errorf("flat series = %q, want ▁▁", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	esc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			esc = true
		case esc && r == 'm':
			esc = false
		case !esc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
