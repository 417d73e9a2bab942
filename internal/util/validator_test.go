package util

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	for _, u := range []string{"abc", "john.doe", "user_01", "a-b-c"} {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("ValidateUsername(%q) error = %v, want nil", u, err)
		}
	}
	for _, u := range []string{"", "ab", "has space", "bad/slash", strings.Repeat("x", 33)} {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("ValidateUsername(%q) error = nil, want error", u)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough"); err != nil {
		t.Errorf("ValidatePassword error = %v, want nil", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Error("ValidatePassword(short) error = nil, want error")
	}
	if err := ValidatePassword(strings.Repeat("p", 73)); err == nil {
		t.Error("ValidatePassword(73 bytes) error = nil, want error")
	}
}

// TestValidateDate_Valid valid calendar dates
func TestValidateDate_Valid(t *testing.T) {
	testCases := []string{
		"2024-01-01",
		"2024-12-31",
		"2024-02-29",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%s) error = %v, want nil", date, err)
		}
	}
}

// TestValidateDate_Invalid wrong formats and impossible dates
func TestValidateDate_Invalid(t *testing.T) {
	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-13-01",
		"2023-02-29",
		"abc",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err == nil {
			t.Errorf("ValidateDate(%s) error = nil, want error", date)
		}
	}
}

func TestValidateClientName(t *testing.T) {
	if err := ValidateClientName("Acme"); err != nil {
		t.Errorf("ValidateClientName error = %v", err)
	}
	if err := ValidateClientName("   "); err == nil {
		t.Error("blank name error = nil, want error")
	}
	if err := ValidateClientName(strings.Repeat("名", 65)); err == nil {
		t.Error("long name error = nil, want error")
	}
}

func TestValidateTarget(t *testing.T) {
	v := func(n int64) *int64 { return &n }
	if err := ValidateTarget(nil); err != nil {
		t.Errorf("nil target error = %v", err)
	}
	if err := ValidateTarget(v(1800)); err != nil {
		t.Errorf("1800 error = %v", err)
	}
	for _, bad := range []int64{0, -1, 24*3600 + 1} {
		if err := ValidateTarget(v(bad)); err == nil {
			t.Errorf("ValidateTarget(%d) error = nil, want error", bad)
		}
	}
}
