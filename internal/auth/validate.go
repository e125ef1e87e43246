package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func normalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func usernameLongEnough(username string) bool {
	return utf8.RuneCountInString(username) >= MinUsernameLength
}

func passwordLongEnough(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}
