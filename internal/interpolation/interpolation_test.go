package interpolation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func values(ps []Placeholder) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Value)
	}
	return out
}

func TestFind(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "Plain text", nil},
		{"sprintf", "Showing %s of %d items", []string{"%s", "%d"}},
		{"positional", "%2$s before %1$s", []string{"%2$s", "%1$s"}},
		{"width and precision", "Total: %05.2f EUR", []string{"%05.2f"}},
		{"escaped percent", "100%% sure", []string{"%%"}},
		{"insert tag", "See {{link::12}} or {{env::url}}", []string{"{{link::12}}", "{{env::url}}"}},
		{"simple token", "Dear ##recipient_name##,", []string{"##recipient_name##"}},
		{"mixed", "##user## has %d new {{label::MSC:messages}}", []string{"##user##", "%d", "{{label::MSC:messages}}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, values(Find(tt.text))); diff != "" {
				t.Errorf("Find(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestFindPositions(t *testing.T) {
	got := Find("a %s b")
	want := []Placeholder{{Value: "%s", Start: 2, End: 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   Mismatch
	}{
		{"identical", "%s of %d", "%d von %s", Mismatch{}},
		{"missing", "%s of %d", "%s", Mismatch{Missing: []string{"%d"}}},
		{"extra", "Hello", "Hallo %s", Mismatch{Extra: []string{"%s"}}},
		{"duplicate count", "%s and %s", "%s", Mismatch{Missing: []string{"%s"}}},
		{"percent literal ignored", "100%%", "100 %", Mismatch{}},
		{"insert tag changed", "{{link::1}}", "{{link::2}}", Mismatch{Missing: []string{"{{link::1}}"}, Extra: []string{"{{link::2}}"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.source, tt.target)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Compare mismatch (-want +got):\n%s", diff)
			}
			if got.Empty() != tt.want.Empty() {
				t.Errorf("Empty() = %v", got.Empty())
			}
		})
	}
}
