package translator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// languageName returns the English name of an ISO code, or the code itself.
func languageName(code string) string {
	if code == "" || code == "auto" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// buildSystemPrompt asks a generative provider for a monolingual legal
// translation, optionally with a sliding-window context and extra
// instructions.
func buildSystemPrompt(req Request) string {
	var sb strings.Builder

	target := languageName(req.TargetLang)
	if source := languageName(req.SourceLang); source != "" {
		sb.WriteString(fmt.Sprintf("You are a professional legal translator. Translate the following text from %s to %s.\n", source, target))
	} else {
		sb.WriteString(fmt.Sprintf("You are a professional legal translator. Translate the following text to %s.\n", target))
	}
	sb.WriteString(fmt.Sprintf("Write the whole answer in %s only, using only its alphabet. Do not keep words, names of institutions or glosses in any other language.\n", target))
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, no labels.")

	if req.Instructions != "" {
		sb.WriteString(" ")
		sb.WriteString(req.Instructions)
	}

	if req.PreviousContext != "" {
		sb.WriteString(fmt.Sprintf("\n\nCONTEXT (previous passage, already translated, do NOT repeat it):\n...%s", req.PreviousContext))
	}

	return sb.String()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatMessages is the system and user turn pair sent to chat-style providers.
func chatMessages(req Request) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: buildSystemPrompt(req)},
		{Role: "user", Content: req.Text},
	}
}
