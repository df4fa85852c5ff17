package grocery

import "testing"

func TestCategorizeExactMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"milk", "Dairy"},
		{"חלב", "Dairy"},
		{"chicken", "Meat & Fish"},
		{"לחם", "Bakery"},
		{"rice", "Pantry"},
		{"גלידה", "Frozen"},
		{"coffee", "Beverages"},
		{"במבה", "Snacks"},
		{"toilet paper", "Household"},
		{"שמפו", "Personal Care"},
		{"עגבניות", "Produce"},
	}
	for _, tt := range tests {
		got := Categorize(tt.input)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeSubstringMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"chicken breast", "Meat & Fish"},
		{"frozen pizza", "Frozen"},
		{"whole wheat bread", "Bakery"},
		{"organic baby spinach", "Produce"},
		{"גבינה צהובה", "Dairy"},
		{"חזה עוף", "Meat & Fish"},
		{"מיץ תפוזים", "Beverages"},
		{"canned black beans", "Pantry"},
	}
	for _, tt := range tests {
		got := Categorize(tt.input)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeCaseInsensitive(t *testing.T) {
	if got := Categorize("  MILK "); got != "Dairy" {
		t.Errorf("Categorize(MILK) = %q, want Dairy", got)
	}
}

func TestCategorizeNoMatch(t *testing.T) {
	for _, input := range []string{"", "   ", "widget", "מחברת"} {
		if got := Categorize(input); got != "" {
			t.Errorf("Categorize(%q) = %q, want empty", input, got)
		}
	}
}
