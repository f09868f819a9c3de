package language

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the sentinel value that requests automatic language detection.
const Auto = "auto"

// ErrUnknownLanguage is returned when a hint cannot be resolved.
var ErrUnknownLanguage = errors.New("unknown language")

// Languages whose English names are accepted as hints. Codes outside this
// list still resolve through BCP 47 parsing.
var named = []string{
	"en", "de", "fr", "es", "it", "pt", "nl", "pl", "sv", "da", "no", "fi",
	"ru", "uk", "cs", "tr", "el", "hu", "ro", "ja", "ko", "zh", "ar", "hi",
}

// ISO 639-2/B codes that BCP 47 parsing does not accept.
var bibliographic = map[string]string{
	"fre": "fr",
	"ger": "de",
	"dut": "nl",
	"chi": "zh",
	"cze": "cs",
	"gre": "el",
	"rum": "ro",
}

// Codes the speech models accept, as listed in Whisper's tokenizer. A few
// predate BCP 47 canonicalization ("jw", "tl") and are passed through as is.
var whisperCodes = map[string]bool{}

func init() {
	for _, code := range strings.Fields(`
		en zh de es ru ko fr ja pt tr pl ca nl ar sv it id hi fi vi he uk el ms
		cs ro da hu ta no th ur hr bg lt la mi ml cy sk te fa lv bn sr az sl kn
		et mk br eu is hy ne mn bs kk sq sw gl mr pa si km sn yo so af oc ka be
		tg sd gu am yi lo uz fo ht ps tk nn mt sa lb my bo tl mg as tt haw ln ha
		ba jw su yue`) {
		whisperCodes[code] = true
	}
}

// Canonical BCP 47 bases that the models know under an older code.
var whisperAliases = map[string]string{
	"fil": "tl",
	"jv":  "jw",
}

var byWord map[string]string

func init() {
	namer := display.English.Languages()
	byWord = make(map[string]string, len(named))
	for _, code := range named {
		name := namer.Name(language.MustParse(code))
		if name == "" {
			continue
		}
		byWord[strings.ToLower(name)] = code
	}
}

// IsAuto reports whether hint asks for automatic detection.
func IsAuto(hint string) bool {
	hint = strings.TrimSpace(hint)
	return hint == "" || strings.EqualFold(hint, Auto)
}

// Normalize resolves a hint to the code handed to the engine. It returns ""
// for automatic detection. Codes the models accept are returned unchanged.
func Normalize(hint string) (string, error) {
	if IsAuto(hint) {
		return "", nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(hint))
	if whisperCodes[trimmed] {
		return trimmed, nil
	}
	if code, ok := byWord[trimmed]; ok {
		return code, nil
	}
	if code, ok := bibliographic[trimmed]; ok {
		return code, nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w %q", ErrUnknownLanguage, hint)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("%w %q", ErrUnknownLanguage, hint)
	}
	code := base.String()
	if alias, ok := whisperAliases[code]; ok {
		code = alias
	}
	if !whisperCodes[code] {
		return "", fmt.Errorf("%w %q: not supported by the speech model", ErrUnknownLanguage, hint)
	}
	return code, nil
}

// DisplayName returns a human-readable language name for a hint.
// Returns "Auto-detect" for the auto sentinel, or the uppercased hint when it
// cannot be resolved.
func DisplayName(hint string) string {
	if IsAuto(hint) {
		return "Auto-detect"
	}
	code, err := Normalize(hint)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(hint))
	}
	if name := display.English.Languages().Name(language.Make(code)); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
