package config

import "testing"

func TestParseReportTime(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{"21:00", 21, 0, false},
		{"09:05", 9, 5, false},
		{"0:0", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"21:00pm", 0, 0, true},
		{"21:00:00", 0, 0, true},
		{" 21:00", 0, 0, true},
		{"noon", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, err := ParseReportTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReportTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && (hour != tt.hour || minute != tt.minute) {
				t.Errorf("ParseReportTime(%q) = %d:%d, want %d:%d", tt.input, hour, minute, tt.hour, tt.minute)
			}
		})
	}
}
