package shopping

import (
	"encoding/json"
	"testing"
)

func TestToggle(t *testing.T) {
	tests := []struct {
		name    string
		current State
		pressed State
		want    State
	}{
		{"mark found", Unchecked, Found, Found},
		{"mark not found", Unchecked, NotFound, NotFound},
		{"re-press found clears", Found, Found, Unchecked},
		{"re-press not found clears", NotFound, NotFound, Unchecked},
		{"found to not found", Found, NotFound, NotFound},
		{"not found to found", NotFound, Found, Found},
		{"clear from found", Found, Unchecked, Unchecked},
		{"clear when unchecked", Unchecked, Unchecked, Unchecked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Toggle(tt.current, tt.pressed); got != tt.want {
				t.Errorf("Toggle(%v, %v) = %v, want %v", tt.current, tt.pressed, got, tt.want)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	for _, v := range []int{0, 1, 2} {
		if _, err := ParseState(v); err != nil {
			t.Errorf("ParseState(%d): unexpected error %v", v, err)
		}
	}
	for _, v := range []int{-1, 3, 42} {
		if _, err := ParseState(v); err == nil {
			t.Errorf("ParseState(%d): expected error", v)
		}
	}
}

func TestStateJSON(t *testing.T) {
	var s State
	if err := json.Unmarshal([]byte(`2`), &s); err != nil || s != NotFound {
		t.Fatalf("unmarshal 2 = %v, %v", s, err)
	}
	if err := json.Unmarshal([]byte(`true`), &s); err != nil || s != Found {
		t.Fatalf("unmarshal true = %v, %v", s, err)
	}
	if err := json.Unmarshal([]byte(`false`), &s); err != nil || s != Unchecked {
		t.Fatalf("unmarshal false = %v, %v", s, err)
	}
	if err := json.Unmarshal([]byte(`5`), &s); err == nil {
		t.Fatal("expected error for 5")
	}

	data, err := json.Marshal(NotFound)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "2" {
		t.Errorf("marshal NotFound = %s, want 2", data)
	}
}

func TestComputeProgress(t *testing.T) {
	p := ComputeProgress(nil)
	if p != (Progress{}) {
		t.Errorf("empty progress = %+v, want zero", p)
	}

	p = ComputeProgress([]State{Found, NotFound, Unchecked, Found, Unchecked, Unchecked})
	if p.Total != 6 || p.Found != 2 || p.Missing != 1 || p.Pending != 3 {
		t.Errorf("progress = %+v", p)
	}
	if p.Percent != 33 {
		t.Errorf("percent = %d, want 33", p.Percent)
	}
	if p.Found+p.Missing+p.Pending != p.Total {
		t.Errorf("found+missing+pending = %d, want %d", p.Found+p.Missing+p.Pending, p.Total)
	}

	p = ComputeProgress([]State{Found, Found, NotFound})
	if p.Percent != 67 {
		t.Errorf("percent = %d, want 67", p.Percent)
	}
}
