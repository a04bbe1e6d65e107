package entitlements

import "testing"

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "basic", want: PlanBasic},
		{in: "advance", want: PlanAdvance},
		{in: "ADVANCE", want: PlanAdvance},
		{in: "standard", want: PlanBasic},
		{in: " basic ", want: PlanBasic},
		{in: "premium", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := NormalizePlan(tt.in); got != tt.want {
			t.Fatalf("NormalizePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if PlanRank("basic") >= PlanRank("advance") {
		t.Fatalf("expected advance to outrank basic")
	}
	if PlanRank("unknown") != 0 {
		t.Fatalf("expected unknown plan to rank 0")
	}
	if PlanRank("standard") != PlanRank("basic") {
		t.Fatalf("expected legacy standard to rank as basic")
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		plan   string
		months int
		want   int64
	}{
		{plan: "basic", months: 1, want: 3900},
		{plan: "basic", months: 3, want: 11700},
		{plan: "advance", months: 1, want: 9900},
		{plan: "advance", months: 12, want: 118800},
		{plan: "basic", months: 0, want: 3900},
		{plan: "nope", months: 1, want: 0},
	}

	for _, tt := range tests {
		if got := Price(tt.plan, tt.months); got != tt.want {
			t.Fatalf("Price(%q, %d) = %d, want %d", tt.plan, tt.months, got, tt.want)
		}
	}
}

func TestTokenQuota(t *testing.T) {
	if got := TokenQuota("basic"); got != 2 {
		t.Fatalf("TokenQuota(basic) = %d, want 2", got)
	}
	if got := TokenQuota("standard"); got != 2 {
		t.Fatalf("TokenQuota(standard) = %d, want 2", got)
	}
	if got := TokenQuota("advance"); got != 3 {
		t.Fatalf("TokenQuota(advance) = %d, want 3", got)
	}
	if got := TokenQuota("other"); got != 0 {
		t.Fatalf("TokenQuota(other) = %d, want 0", got)
	}
}

func TestAllowsTokenType(t *testing.T) {
	if AllowsTokenType("basic", "wordpress") {
		t.Fatalf("basic plan must not issue wordpress tokens")
	}
	if !AllowsTokenType("advance", "wordpress") {
		t.Fatalf("advance plan must issue wordpress tokens")
	}
	if !AllowsTokenType("basic", "facebook") {
		t.Fatalf("basic plan must issue facebook tokens")
	}
}
