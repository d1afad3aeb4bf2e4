package cosmos

import "testing"

func TestGetSetRLimitNoFile(t *testing.T) {
	orig, err := GetRLimit(RLimitNoFile)
	if err != nil {
		t.Fatalf("GetRLimit: %v", err)
	}
	if orig.Soft == 0 {
		t.Fatal("RLimitNoFile soft limit is 0")
	}

	lower := orig.Soft
	if lower > 1024 {
		lower = 1024
	} else if lower > 1 {
		lower--
	} else {
		t.Skip("RLimitNoFile soft limit too small to lower")
	}

	if err := SetRLimit(RLimitNoFile, RLimit{Soft: lower, Hard: orig.Hard}); err != nil {
		t.Fatalf("SetRLimit: %v", err)
	}
	defer SetRLimit(RLimitNoFile, orig)

	got, err := GetRLimit(RLimitNoFile)
	if err != nil {
		t.Fatalf("GetRLimit after Set: %v", err)
	}
	if got.Soft != lower {
		t.Fatalf("RLimitNoFile soft = %d, want %d", got.Soft, lower)
	}
}

func TestPrLimitReadsCurrentProcess(t *testing.T) {
	before, err := GetRLimit(RLimitNoFile)
	if err != nil {
		t.Fatalf("GetRLimit: %v", err)
	}
	got, err := PrLimit(0, RLimitNoFile, nil)
	if err != nil {
		t.Fatalf("PrLimit: %v", err)
	}
	if got != before {
		t.Fatalf("PrLimit(0, ...) = %+v, want %+v", got, before)
	}
}

func TestGetRUsageSelf(t *testing.T) {
	u, err := GetRUsage(RUsageSelf)
	if err != nil {
		t.Fatalf("GetRUsage: %v", err)
	}
	if u.MaxRSS <= 0 {
		t.Fatalf("RUsage.MaxRSS = %d, want > 0", u.MaxRSS)
	}
}
