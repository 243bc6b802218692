package errors

import (
	"strings"
	"testing"
)

type sample struct {
	Name  string  `json:"name" validate:"required,max=5"`
	Color string  `json:"color" validate:"omitempty,color"`
	Width float64 `toml:"width" validate:"gte=0"`
	Mode  string  `validate:"omitempty,oneof=a b"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want []string
	}{
		{"valid", sample{Name: "ok", Color: "#fff"}, nil},
		{"missing name", sample{}, []string{"name is required"}},
		{"too long", sample{Name: "toolong"}, []string{"name must be at most 5"}},
		{"bad color", sample{Name: "x", Color: "#12"}, []string{"color must be a CSS color"}},
		{"negative width", sample{Name: "x", Width: -1}, []string{"width must be at least 0"}},
		{"bad mode", sample{Name: "x", Mode: "c"}, []string{"Mode must be one of: a b"}},
		{"several", sample{Width: -1}, []string{"name is required", "width must be at least 0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !Is(err, ErrCodeInvalidInput) {
				t.Fatalf("error %v is not INVALID_INPUT", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}
