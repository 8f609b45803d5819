package ai

// ModelPreset names a sampling profile.
type ModelPreset string

const (
	// PresetDeterministic is used for translation: identical input yields identical output.
	PresetDeterministic ModelPreset = "deterministic"
	PresetBalanced      ModelPreset = "balanced"
)

// Sampling controls generation for a single completion call.
type Sampling struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
	Model           string
}

// Completion is the text returned by whichever provider served the call.
type Completion struct {
	Text         string
	Provider     string
	Model        string
	UsedFallback bool
}

type ProviderResult struct {
	Text  string
	Model string
}

func GetPresetConfig(preset ModelPreset) Sampling {
	switch preset {
	case PresetDeterministic:
		return Sampling{
			Temperature:     0,
			TopP:            1.0,
			MaxOutputTokens: 1024,
		}
	case PresetBalanced:
		return Sampling{
			Temperature:     0.3,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		}
	default:
		return GetPresetConfig(PresetBalanced)
	}
}
