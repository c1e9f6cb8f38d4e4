package station

import "testing"

func TestGenerateEntityID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"EnBW Station #42", "enbw_station_42"},
		{"enbw_station_393894_state", "enbw_station_393894_state"},
		{"Stuttgart Hauptbahnhof (Nord)", "stuttgart_hauptbahnhof_nord_"},
		{"ABC123", "abc123"},
		{"a  -  b", "a_b"},
	}

	for _, tt := range tests {
		if got := GenerateEntityID(tt.in); got != tt.want {
			t.Errorf("GenerateEntityID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
