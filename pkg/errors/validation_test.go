package errors

import (
	"strings"
	"testing"
)

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty means default", "", false},
		{"short hex", "#fff", false},
		{"long hex", "#1a2B3c", false},
		{"hex with alpha", "#1a2b3c80", false},
		{"named", "rebeccapurple", false},
		{"rgb", "rgb(10, 20, 30)", false},
		{"rgba", "rgba(10,20,30,0.5)", false},
		{"hsl", "hsl(120, 50%, 50%)", false},

		{"bad hex length", "#12345", true},
		{"bad hex digit", "#ggg", true},
		{"script", "red;background:url(x)", true},
		{"rgb missing channel", "rgb(1,2)", true},
		{"markup", "<b>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidColor) {
				t.Errorf("ValidateColor(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidColor)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"session key", "diagram:3f2c9a4e-1b7d-4c1e-9a55-2d1f0e6b7c88", false},
		{"with slash", "diagram/abc", false},

		{"empty", "", true},
		{"too long", strings.Repeat("k", 300), true},
		{"path traversal", "../etc/passwd", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"lowercase uuid", "3f2c9a4e-1b7d-4c1e-9a55-2d1f0e6b7c88", false},
		{"uppercase uuid", "3F2C9A4E-1B7D-4C1E-9A55-2D1F0E6B7C88", false},

		{"empty", "", true},
		{"short", "3f2c9a4e", true},
		{"traversal", "../3f2c9a4e-1b7d-4c1e-9a55-2d1f0e6b7c88", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"markup", "<b>bold</b> text", false},
		{"multi line", "one\ntwo\tthree", false},

		{"too long", strings.Repeat("x", MaxContentLength+1), true},
		{"bell", "ding\a", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContent(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
