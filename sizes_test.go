package thumbcache

import "testing"

func TestSizeTierDimensions(t *testing.T) {
	tests := []struct {
		tier SizeTier
		want int
	}{
		{SizeSmall, 64},
		{SizeNormal, 128},
		{SizeLarge, 256},
		{SizeXLarge, 512},
		{SizeXXLarge, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.tier.Dir(), func(t *testing.T) {
			if got := tt.tier.Dimension(); got != tt.want {
				t.Errorf("Dimension() = %d, want %d", got, tt.want)
			}
			if !tt.tier.Valid() {
				t.Errorf("Valid() = false for defined tier %s", tt.tier)
			}
		})
	}
}

func TestSizeTiersOrdered(t *testing.T) {
	tiers := SizeTiers()
	if len(tiers) != 5 {
		t.Fatalf("expected 5 tiers, got %d", len(tiers))
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Dimension() <= tiers[i-1].Dimension() {
			t.Errorf("tiers not in ascending order at %d: %v", i, tiers)
		}
	}
}

func TestParseSizeTier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SizeTier
		wantErr bool
	}{
		{"Normal", "normal", SizeNormal, false},
		{"XLarge", "x-large", SizeXLarge, false},
		{"Unknown", "gigantic", "", true},
		{"Empty", "", "", true},
		{"CaseSensitive", "Normal", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSizeTier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSizeTier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSizeTier(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInvalidTier(t *testing.T) {
	if SizeTier("huge").Valid() {
		t.Error("undefined tier reported valid")
	}
	if SizeTier("huge").Dimension() != 0 {
		t.Error("undefined tier has a dimension")
	}
}
