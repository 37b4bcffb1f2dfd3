package prompt

import "strings"

// Placeholder marks where the transcription is inserted in a template.
const Placeholder = "{transcription}"

// Substitute replaces the first Placeholder in template with transcription.
// Later occurrences are left as they are, and a template without the
// placeholder is returned unchanged.
func Substitute(template, transcription string) string {
	return strings.Replace(template, Placeholder, transcription, 1)
}

