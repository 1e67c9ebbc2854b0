package embedded

import (
	_ "embed"
)

// Embed all prompt and synthesizer data files
//
//go:embed data/core_data/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/core_data/output_format_instructions.txt
var OutputFormatInstructionsTxt []byte

//go:embed data/voices/voices.yaml
var VoicePresetsYaml []byte
