package policy

import (
	"context"
	"reflect"
	"testing"
)

func TestIsAllowed(t *testing.T) {
	p := New([]int64{100, -1001234567890}, nil)

	if !p.IsAllowed(100) {
		t.Error("chat 100 should be allowed")
	}
	if !p.IsAllowed(-1001234567890) {
		t.Error("supergroup id should be allowed")
	}
	if p.IsAllowed(200) {
		t.Error("chat 200 should not be allowed")
	}
}

func TestIsExemptSender(t *testing.T) {
	p := New([]int64{100}, []int64{-1009999})

	if !p.IsExemptSender(-1009999) {
		t.Error("linked channel should be exempt")
	}
	if p.IsExemptSender(-1008888) {
		t.Error("unknown sender chat should not be exempt")
	}
	// Zero means "no sender chat" and is never exempt.
	if p.IsExemptSender(0) {
		t.Error("zero sender chat id must not be exempt")
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int64
		wantErr bool
	}{
		{"simple", "100,200", []int64{100, 200}, false},
		{"whitespace", " 100 , 200 ", []int64{100, 200}, false},
		{"negative ids", "-1001234567890", []int64{-1001234567890}, false},
		{"trailing comma", "100,", []int64{100}, false},
		{"empty", "", nil, false},
		{"garbage", "100,abc", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDList(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIDList(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseIDList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadConfigOnly(t *testing.T) {
	p, err := Load(context.Background(), "", []int64{100}, []int64{-1009999})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.IsAllowed(100) || !p.IsExemptSender(-1009999) {
		t.Error("config lists not reflected in loaded policy")
	}
}

func TestLoadRejectsEmptyAllowList(t *testing.T) {
	if _, err := Load(context.Background(), "", nil, nil); err == nil {
		t.Fatal("Load with empty allow-list and no database must fail")
	}
}
