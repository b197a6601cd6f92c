package difficulty

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"easy", TierEasy, false},
		{"  Intermediate ", TierIntermediate, false},
		{"HARD", TierHard, false},
		{"expert", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownTier) {
				t.Errorf("ParseTier(%q) err = %v, want ErrUnknownTier", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTier(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTierOrdering(t *testing.T) {
	tiers := AllTiers()
	for i := 1; i < len(tiers); i++ {
		if tiers[i-1].Rank() >= tiers[i].Rank() {
			t.Errorf("%s rank %d not below %s rank %d", tiers[i-1], tiers[i-1].Rank(), tiers[i], tiers[i].Rank())
		}
	}
	if Tier("expert").Rank() != -1 {
		t.Error("unknown tier should rank -1")
	}
}

func TestPromoteDemoteClamp(t *testing.T) {
	if TierEasy.Promote() != TierIntermediate {
		t.Error("easy should promote to intermediate")
	}
	if TierIntermediate.Promote() != TierHard {
		t.Error("intermediate should promote to hard")
	}
	if TierHard.Promote() != TierHard {
		t.Error("hard should stay hard")
	}
	if TierHard.Demote() != TierIntermediate {
		t.Error("hard should demote to intermediate")
	}
	if TierEasy.Demote() != TierEasy {
		t.Error("easy should stay easy")
	}
	if Lowest() != TierEasy || Highest() != TierHard {
		t.Error("unexpected ladder bounds")
	}
}

func TestTierUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{`"Hard"`, TierHard},
		{`"EASY"`, TierEasy},
		{`" intermediate "`, TierIntermediate},
		{`"legendary"`, "legendary"},
	}
	for _, tt := range tests {
		var got Tier
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, got, tt.want)
		}
		if got.Valid() != (tt.want != "legendary") {
			t.Errorf("Unmarshal(%s).Valid() = %v", tt.in, got.Valid())
		}
	}
}
