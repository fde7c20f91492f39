package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"200000", 200000, false},
		{"1 500 000", 1500000, false},
		{"12,5", 13, false},
		{"12.4", 12, false},
		{"0", 0, true},
		{"0.4", 0, true},
		{"-10", 0, true},
		{"+10", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) error = %v", tt.in, err)
			}
			if got.Minor != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got.Minor, tt.want)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, whole int64
		want        int
	}{
		{"half", 50, 100, 50},
		{"rounds half up", 345, 1000, 35},
		{"clamped above", 650000, 600000, 100},
		{"exact", 600000, 600000, 100},
		{"zero whole positive part", 1, 0, 100},
		{"zero whole zero part", 0, 0, 0},
		{"funded goal", 12500000, 50000000, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(NewMoney(tt.part), NewMoney(tt.whole)); got != tt.want {
				t.Errorf("Percent(%d, %d) = %d, want %d", tt.part, tt.whole, got, tt.want)
			}
		})
	}
}

func TestMoneyUnmarshalString(t *testing.T) {
	var m Money
	if err := m.UnmarshalJSON([]byte(`"1500"`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Minor != 1500 {
		t.Fatalf("got %d, want 1500", m.Minor)
	}
	if err := m.UnmarshalJSON([]byte(`"x"`)); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}
