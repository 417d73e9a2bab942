package tracker

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateNew(t *testing.T) {
	if err := ValidateNew("Design", "c1"); err != nil {
		t.Errorf("ValidateNew() error = %v, want nil", err)
	}
	if err := ValidateNew("   ", "c1"); !errors.Is(err, ErrEmptyTaskName) {
		t.Errorf("ValidateNew(blank task) error = %v, want ErrEmptyTaskName", err)
	}
	if err := ValidateNew("Design", ""); !errors.Is(err, ErrMissingClient) {
		t.Errorf("ValidateNew(no client) error = %v, want ErrMissingClient", err)
	}
}

func TestValidateTimes(t *testing.T) {
	if err := ValidateTimes(base, nil); err != nil {
		t.Errorf("active entry error = %v, want nil", err)
	}
	if err := ValidateTimes(base, Int64(base)); err != nil {
		t.Errorf("zero length error = %v, want nil", err)
	}
	if err := ValidateTimes(base, Int64(base-1)); !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("end before start error = %v, want ErrEndBeforeStart", err)
	}
}

// TestTruncateComment counts characters, not bytes
func TestTruncateComment(t *testing.T) {
	long := strings.Repeat("時", 600)
	got := TruncateComment(long)
	if n := len([]rune(got)); n != MaxCommentLength {
		t.Errorf("truncated length = %d, want %d", n, MaxCommentLength)
	}
	if got := TruncateComment("  ok  "); got != "ok" {
		t.Errorf("TruncateComment = %q, want ok", got)
	}
}

func TestManualRange(t *testing.T) {
	start, end, err := ManualRange("2025-06-18", "09:00", "10:30", jst)
	if err != nil {
		t.Fatalf("ManualRange error = %v", err)
	}
	if (end-start)/1000 != 5400 {
		t.Errorf("span = %ds, want 5400", (end-start)/1000)
	}
	if got := FromMillis(start, jst); got.Hour() != 9 || got.Day() != 18 {
		t.Errorf("start = %v", got)
	}
}

// TestManualRange_Midnight rolls the end into the next day
func TestManualRange_Midnight(t *testing.T) {
	start, end, err := ManualRange("2025-06-18", "23:00", "01:15", jst)
	if err != nil {
		t.Fatalf("ManualRange error = %v", err)
	}
	if (end-start)/1000 != 8100 {
		t.Errorf("span = %ds, want 8100", (end-start)/1000)
	}
	if got := FromMillis(end, jst).Format(DateLayout); got != "2025-06-19" {
		t.Errorf("end date = %s, want 2025-06-19", got)
	}
	if got := DateOf(start, jst); got != "2025-06-18" {
		t.Errorf("date = %s, want start date 2025-06-18", got)
	}
}

func TestManualRange_Invalid(t *testing.T) {
	if _, _, err := ManualRange("2025-06-18", "10:00", "10:00", jst); !errors.Is(err, ErrZeroDuration) {
		t.Errorf("zero span error = %v, want ErrZeroDuration", err)
	}
	if _, _, err := ManualRange("2025-06-18", "25:00", "10:00", jst); !errors.Is(err, ErrInvalidClock) {
		t.Errorf("bad clock error = %v, want ErrInvalidClock", err)
	}
	if _, _, err := ManualRange("18/06/2025", "09:00", "10:00", jst); err == nil {
		t.Error("bad date error = nil, want error")
	}
}

func TestClockOn(t *testing.T) {
	ms, err := ClockOn("2025-06-18", "08:00", jst)
	if err != nil {
		t.Fatalf("ClockOn error = %v", err)
	}
	if got := FromMillis(ms, jst); got.Day() != 18 || got.Hour() != 8 {
		t.Errorf("ClockOn = %v, want 2025-06-18 08:00", got)
	}
	if _, err := ClockOn("2025-06-18", "8am", jst); !errors.Is(err, ErrInvalidClock) {
		t.Errorf("bad clock error = %v, want ErrInvalidClock", err)
	}
}

func TestClientColor(t *testing.T) {
	a := ClientColor("Acme")
	if a != ClientColor("  acme ") {
		t.Error("ClientColor not stable across case and spacing")
	}
	if !hexColorRe.MatchString(a) {
		t.Errorf("ClientColor = %q, not #rrggbb", a)
	}

	if got, err := ResolveColor("Acme", ""); err != nil || got != a {
		t.Errorf("ResolveColor(empty) = %q, %v", got, err)
	}
	if got, err := ResolveColor("Acme", "#ABCDEF"); err != nil || got != "#abcdef" {
		t.Errorf("ResolveColor(#ABCDEF) = %q, %v", got, err)
	}
	if _, err := ResolveColor("Acme", "blue"); err == nil {
		t.Error("ResolveColor(blue) error = nil, want error")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:    "0:00",
		59:   "0:59",
		330:  "5:30",
		3600: "1:00:00",
		3725: "1:02:05",
		-50:  "-0:50",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
	if got := Hours(5400); got != 1.5 {
		t.Errorf("Hours(5400) = %v, want 1.5", got)
	}
}

func TestDateOf_UsesLocation(t *testing.T) {
	// 2025-06-18 20:00 UTC is already the 19th in Tokyo
	ms := Millis(time.Date(2025, 6, 18, 20, 0, 0, 0, time.UTC))
	if got := DateOf(ms, jst); got != "2025-06-19" {
		t.Errorf("DateOf = %s, want 2025-06-19", got)
	}
	if got := DateOf(ms, time.UTC); got != "2025-06-18" {
		t.Errorf("DateOf(UTC) = %s, want 2025-06-18", got)
	}
}
