package embed_data

import _ "embed"

//go:embed prompts/system_instructions.md
var SystemInstructionsPrompt []byte

//go:embed prompts/file_guidance.md
var FileGuidancePrompt []byte

//go:embed prompts/package_guidance.md
var PackageGuidancePrompt []byte

//go:embed prompts/directory_guidance.md
var DirectoryGuidancePrompt []byte

//go:embed prompts/default_guidance.md
var DefaultGuidancePrompt []byte

//go:embed models_details.json
var ModelDetails []byte
