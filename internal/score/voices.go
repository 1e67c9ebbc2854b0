package score

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/scoreforge/scoreforge-api/pkg/embedded"
)

// VoicePreset describes one synthesizer voice: oscillator shape plus
// envelope timing in seconds.
type VoicePreset struct {
	Name    string  `yaml:"name"`
	Wave    string  `yaml:"wave"`
	Gain    float64 `yaml:"gain"`
	Attack  float64 `yaml:"attack"`
	Release float64 `yaml:"release"`
}

// VoiceBank holds the loaded presets. The first preset is the default
// melody voice.
type VoiceBank struct {
	Voices []VoicePreset `yaml:"voices"`
}

// LoadVoiceBank parses the embedded voice presets.
func LoadVoiceBank() (*VoiceBank, error) {
	var bank VoiceBank
	if err := yaml.Unmarshal(embedded.VoicePresetsYaml, &bank); err != nil {
		return nil, fmt.Errorf("parsing voice presets: %w", err)
	}
	if len(bank.Voices) == 0 {
		return nil, fmt.Errorf("voice presets contain no voices")
	}
	return &bank, nil
}

// Default returns the default melody voice.
func (b *VoiceBank) Default() VoicePreset {
	return b.Voices[0]
}

// ByName returns the named voice, falling back to the default.
func (b *VoiceBank) ByName(name string) VoicePreset {
	for _, v := range b.Voices {
		if v.Name == name {
			return v
		}
	}
	return b.Default()
}
