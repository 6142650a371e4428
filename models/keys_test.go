package models

import (
	"errors"
	"testing"
)

func TestParseCompositeKey(t *testing.T) {
	tests := []struct {
		input   string
		want    ContactKey
		wantErr bool
	}{
		{"valuation_3f2c9a10-1111-4c4c-8888-000000000001", ContactKey{OriginValuation, "3f2c9a10-1111-4c4c-8888-000000000001"}, false},
		{"contact_abc_def_ghi", ContactKey{OriginContact, "abc_def_ghi"}, false},
		{"Advisor_x", ContactKey{OriginAdvisor, "x"}, false},
		{"valuation_", ContactKey{}, true},
		{"_abc", ContactKey{}, true},
		{"noseparator", ContactKey{}, true},
		{"unknown_abc", ContactKey{}, true},
	}

	for _, tt := range tests {
		got, err := ParseCompositeKey(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCompositeKey) {
				t.Errorf("ParseCompositeKey(%q) error = %v, want ErrInvalidCompositeKey", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCompositeKey(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCompositeKey(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
		if back, _ := ParseCompositeKey(got.String()); back != got {
			t.Errorf("round trip of %q produced %+v", tt.input, back)
		}
	}
}

func TestParseCompositeKeysStopsOnError(t *testing.T) {
	_, err := ParseCompositeKeys([]string{"valuation_1", "bogus"})
	if err == nil {
		t.Fatal("expected error for malformed key")
	}
}
