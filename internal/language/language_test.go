package language

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"auto", ""},
		{"Auto", ""},
		{"  AUTO ", ""},
		{"de", "de"},
		{"DE", "de"},
		{"de-DE", "de"},
		{"deu", "de"},
		{"ger", "de"},
		{"eng", "en"},
		{"German", "de"},
		{"english", "en"},
		{"fr-CA", "fr"},
		{"ja", "ja"},
		{"tl", "tl"},
		{"jw", "jw"},
		{"TL", "tl"},
		{"fil", "tl"},
		{"jv", "jw"},
		{"yue", "yue"},
		{"haw", "haw"},
		{"mo", "ro"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, input := range []string{"not a language", "12345", "zz-zz-zz!", "zu"} {
		if _, err := Normalize(input); !errors.Is(err, ErrUnknownLanguage) {
			t.Errorf("Normalize(%q) error = %v, want ErrUnknownLanguage", input, err)
		}
	}
}

func TestIsAuto(t *testing.T) {
	if !IsAuto("") || !IsAuto("Auto") || IsAuto("de") {
		t.Fatal("unexpected IsAuto result")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"":      "Auto-detect",
		"auto":  "Auto-detect",
		"de":    "German",
		"fra":   "French",
		"bogus": "BOGUS",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
