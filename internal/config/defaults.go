package config

const (
	defaultEngine          = EngineAuto
	defaultComputeType     = "default"
	defaultLanguage        = "auto"
	defaultPython          = "python3"
	defaultFFprobe         = "ffprobe"
	defaultDevice          = "auto"
	defaultModelDir        = "~/.cache/huggingface/hub"
	defaultLockExtension   = ".lock"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultWatchDebounceMS = 2000
)

// Engine kinds accepted by transcription.engine.
const (
	EngineAuto       = "auto"
	EngineStream     = "stream"
	EngineSubprocess = "subprocess"
)

// ComputeTypes lists the CTranslate2 compute types accepted by
// transcription.compute_type.
var ComputeTypes = []string{
	"default",
	"auto",
	"int8",
	"int8_float32",
	"int8_float16",
	"int8_bfloat16",
	"int16",
	"float16",
	"bfloat16",
	"float32",
}

// DefaultExtensions is the media extension allow-list used for directory walks.
func DefaultExtensions() []string {
	return []string{".mp4", ".mp3", ".mov", ".mkv", ".webm"}
}

// DefaultExcludeDirs lists path substrings that are never walked into.
func DefaultExcludeDirs() []string {
	return []string{
		"_NICHT SENDEN",
		"00-assets",
		"00-audio",
		"00-social-share",
		"Black Error",
		"03 - Musikalische Lückenfüller",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Transcription: Transcription{
			Engine:      defaultEngine,
			ComputeType: defaultComputeType,
			Language:    defaultLanguage,
			Python:      defaultPython,
			FFprobe:     defaultFFprobe,
			Device:      defaultDevice,
			ModelDir:    defaultModelDir,
		},
		Discovery: Discovery{
			Extensions:    DefaultExtensions(),
			ExcludeDirs:   DefaultExcludeDirs(),
			LockExtension: defaultLockExtension,
		},
		Watch: Watch{
			DebounceMillis: defaultWatchDebounceMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
