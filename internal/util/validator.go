package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// ValidateUsername allows 3-32 letters, digits, '_', '.', '-'
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username must be 3-32 characters of letters, digits, _ . -")
	}
	return nil
}

// ValidatePassword requires at least 8 characters (bcrypt truncates after 72 bytes)
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return fmt.Errorf("password too short, min 8 characters")
	}
	if len(password) > 72 {
		return fmt.Errorf("password too long, max 72 bytes")
	}
	return nil
}

// ValidateDate checks the YYYY-MM-DD format
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateClientName checks a client name is present and short
func ValidateClientName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("client name is empty")
	}
	if utf8.RuneCountInString(name) > 64 {
		return fmt.Errorf("client name too long, max 64 characters")
	}
	return nil
}

// ValidateTarget checks a goal in seconds: positive and under one day
func ValidateTarget(target *int64) error {
	if target == nil {
		return nil
	}
	if *target <= 0 {
		return fmt.Errorf("target duration must be positive, got %d", *target)
	}
	if *target > 24*3600 {
		return fmt.Errorf("target duration too large, max 24h")
	}
	return nil
}
