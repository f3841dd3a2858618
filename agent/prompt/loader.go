package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/extractor.txt
var extractorRaw string

// Extractor returns the system instructions for the profile-extraction
// completion call.
func Extractor() string {
	return strings.TrimSpace(extractorRaw)
}
