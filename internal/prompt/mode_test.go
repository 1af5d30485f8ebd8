package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"chat":      ModeChat,
		"normal":    ModeChat, // legacy alias from the web client
		"":          ModeChat,
		"code":      ModeCode,
		"translate": ModeTranslate,
		"summarize": ModeSummarize,
		"CODE":      ModeCode,
		" code ":    ModeCode,
		"nonsense":  ModeChat,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseMode(in), "input %q", in)
	}
}

func TestSystemInstructionChat(t *testing.T) {
	got := SystemInstruction(ModeChat, "")
	assert.Contains(t, got, "helpful AI assistant")
}

func TestSystemInstructionCode(t *testing.T) {
	got := SystemInstruction(ModeCode, "")
	assert.Contains(t, got, "software engineer")
	assert.Contains(t, got, "code blocks")
}

func TestSystemInstructionTranslate(t *testing.T) {
	got := SystemInstruction(ModeTranslate, "french")
	assert.Contains(t, got, "Translate the user's input to French.")
	assert.Contains(t, got, "Respond ONLY with the translation")
}

func TestSystemInstructionTranslateEnglishFallsBack(t *testing.T) {
	// English is "no translation": the instruction stays a plain
	// assistant persona and never asks for a translation.
	for _, lang := range []string{"english", "English", ""} {
		got := SystemInstruction(ModeTranslate, lang)
		assert.NotContains(t, got, "Translate", "language %q", lang)
		assert.Contains(t, got, "in English")
	}
}

func TestSystemInstructionTranslateUnknownLanguage(t *testing.T) {
	got := SystemInstruction(ModeTranslate, "klingon")
	assert.Contains(t, got, "Translate the user's input to Klingon.")
}

func TestLanguageLabel(t *testing.T) {
	assert.Equal(t, "Tamil", LanguageLabel("tamil"))
	assert.Equal(t, "French", LanguageLabel(" FRENCH "))
	assert.Equal(t, "Klingon", LanguageLabel("klingon"))
	assert.Equal(t, "", LanguageLabel(""))
}

func TestLanguagesIncludesKnownTargets(t *testing.T) {
	langs := Languages()
	assert.Contains(t, langs, "french")
	assert.Contains(t, langs, "tamil")
	assert.Len(t, langs, 15)
}
