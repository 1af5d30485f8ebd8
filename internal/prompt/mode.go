// Package prompt builds the per-request system instruction and the
// bounded conversation context sent to the model.
package prompt

import (
	"fmt"
	"strings"
)

// Mode selects the assistant persona for a chat request.
type Mode string

const (
	ModeChat      Mode = "chat"
	ModeCode      Mode = "code"
	ModeTranslate Mode = "translate"
	ModeSummarize Mode = "summarize"
)

// ParseMode maps the wire value to a Mode. Unknown values fall back to
// ModeChat; "normal" is the legacy alias the web client sends.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "code":
		return ModeCode
	case "translate":
		return ModeTranslate
	case "summarize":
		return ModeSummarize
	case "chat", "normal", "":
		return ModeChat
	default:
		return ModeChat
	}
}

const (
	chatInstruction = "You are a helpful AI assistant. Provide clear, accurate, and helpful responses to user questions."

	codeInstruction = "You are an expert software engineer. Provide accurate, idiomatic code and concise technical explanations. Use code blocks for any code in your response."

	summarizeInstruction = "You are a helpful AI assistant. Summarize the user's input concisely, preserving the key points and omitting filler."
)

// languageLabels maps wire language identifiers to their display
// labels used in the translation instruction. The set is the union of
// the client's speech languages and the server route's target list.
var languageLabels = map[string]string{
	"english":    "English",
	"tamil":      "Tamil",
	"hindi":      "Hindi",
	"french":     "French",
	"spanish":    "Spanish",
	"malayalam":  "Malayalam",
	"telugu":     "Telugu",
	"german":     "German",
	"italian":    "Italian",
	"portuguese": "Portuguese",
	"russian":    "Russian",
	"japanese":   "Japanese",
	"korean":     "Korean",
	"chinese":    "Chinese",
	"arabic":     "Arabic",
}

// Languages returns the wire identifiers of all known target languages.
func Languages() []string {
	out := make([]string, 0, len(languageLabels))
	for k := range languageLabels {
		out = append(out, k)
	}
	return out
}

// LanguageLabel returns the display label for a wire language
// identifier, title-casing unknown values rather than rejecting them.
func LanguageLabel(lang string) string {
	key := strings.ToLower(strings.TrimSpace(lang))
	if label, ok := languageLabels[key]; ok {
		return label
	}
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// SystemInstruction returns the system instruction for a mode. For
// ModeTranslate the instruction constrains the output to the bare
// translation; an English target keeps the plain assistant instruction,
// matching how the web client treats English as "no translation".
func SystemInstruction(mode Mode, language string) string {
	switch mode {
	case ModeCode:
		return codeInstruction
	case ModeSummarize:
		return summarizeInstruction
	case ModeTranslate:
		label := LanguageLabel(language)
		if label == "" || strings.EqualFold(label, "English") {
			return "You are a helpful AI assistant. Provide clear, accurate, and helpful responses to user questions in English."
		}
		return fmt.Sprintf("You are a helpful AI assistant. Translate the user's input to %s. Respond ONLY with the translation, no explanations or additional text.", label)
	default:
		return chatInstruction
	}
}
