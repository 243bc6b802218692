package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// hexColorRegex matches #rgb, #rgba, #rrggbb and #rrggbbaa.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// colorFuncRegex matches rgb(), rgba(), hsl() and hsla() notations.
var colorFuncRegex = regexp.MustCompile(`^(rgb|rgba|hsl|hsla)\(\s*[0-9.%]+\s*(,\s*[0-9.%]+\s*){2,3}\)$`)

// colorNameRegex matches named colors such as "red" or "transparent".
var colorNameRegex = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)

// ValidateColor validates a CSS color value as stored on nodes, edges and
// the canvas. The empty string is accepted and means "use the default".
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	c := strings.TrimSpace(color)
	if hexColorRegex.MatchString(c) || colorFuncRegex.MatchString(c) || colorNameRegex.MatchString(c) {
		return nil
	}
	return New(ErrCodeInvalidColor, "invalid color: %q", color)
}

// ValidateKey validates a key-value store key for safety.
// Keys end up in file paths and database documents, so the rules are
// conservative:
//   - Key cannot be empty
//   - Maximum length of 256 characters
//   - No control characters or null bytes
//   - No path traversal sequences (..) or backslashes
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "key cannot be empty")
	}

	if len(key) > 256 {
		return New(ErrCodeInvalidKey, "key too long (max 256 characters)")
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "key contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "\\", "\x00"} {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidKey, "key contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// sessionIDRegex matches the canonical textual form of a UUID.
var sessionIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateSessionID validates a session identifier.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session ID cannot be empty")
	}
	if !sessionIDRegex.MatchString(strings.ToLower(id)) {
		return New(ErrCodeInvalidInput, "invalid session ID: %q", id)
	}
	return nil
}

// MaxContentLength is the largest node content accepted from outside.
const MaxContentLength = 64 << 10

// ValidateContent validates node content coming from the CLI, the HTTP API
// or a document. Newlines and tabs are allowed; other control characters
// are not.
func ValidateContent(content string) error {
	if len(content) > MaxContentLength {
		return New(ErrCodeInvalidInput, "content too long (max %d bytes)", MaxContentLength)
	}
	for _, r := range content {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "content contains invalid control characters")
		}
	}
	return nil
}
