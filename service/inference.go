package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

// Prompt prefixes the model was fine-tuned with, one per language.
const (
	prefixFR = "Réponds à la question de programmation suivante en français : "
	prefixEN = "Answer the following programming question in English: "
)

// Fixed fallback answers. Inference failures degrade to one of these
// instead of an HTTP error, so /ask cannot fail after authentication.
const (
	fallbackUnavailable = "Désolé, le cerveau IA n'est pas disponible (problème de chargement)."
	fallbackIrrelevant  = "Je n'ai pas pu générer une réponse pertinente. Essayez de reformuler."
	fallbackError       = "Oups, une erreur s'est produite."
)

const (
	predictTimeout  = 60 * time.Second
	minAnswerLength = 10
)

// InferenceService answers programming questions through an
// OpenAI-compatible completion endpoint, choosing a French or English
// prompt from the question's language.
type InferenceService struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

func NewInferenceService(client *openai.Client, model string, logger *logrus.Logger) *InferenceService {
	return &InferenceService{client: client, model: model, logger: logger}
}

// Predict never returns an error; every failure mode maps to a fixed
// human-readable answer.
func (s *InferenceService) Predict(ctx context.Context, question string) string {
	if s.client == nil {
		return fallbackUnavailable
	}

	prefix := prefixEN
	if detectLanguage(question) == "fr" {
		prefix = prefixFR
	}
	prompt := prefix + question

	ctx, cancel := context.WithTimeout(ctx, predictTimeout)
	defer cancel()

	var content any = prompt
	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.ChatCompletionMessageParam{
				Role:    openai.F(openai.ChatCompletionMessageParamRoleUser),
				Content: openai.F(content),
			},
		}),
		Model:       openai.F(s.model),
		Temperature: openai.F(0.7),
		TopP:        openai.F(0.95),
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		s.logger.Warnf("inference call failed: %s", err)
		return fallbackError
	}
	if len(completion.Choices) == 0 {
		return fallbackIrrelevant
	}

	answer := stripPromptEcho(completion.Choices[0].Message.Content, prompt, prefix)
	if answerTooShort(answer) {
		return fallbackIrrelevant
	}
	return answer
}

// answerTooShort counts characters, not bytes; accented French text must
// not clear the minimum early.
func answerTooShort(answer string) bool {
	return utf8.RuneCountInString(answer) < minAnswerLength
}

// stripPromptEcho drops the prompt or the bare training prefix when the
// model repeats it at the start of the generation.
func stripPromptEcho(generated, prompt, prefix string) string {
	answer := strings.TrimSpace(generated)
	lower := strings.ToLower(answer)
	switch {
	case strings.HasPrefix(lower, strings.ToLower(prompt)):
		answer = strings.TrimSpace(answer[len(prompt):])
	case strings.HasPrefix(lower, strings.ToLower(prefix)):
		answer = strings.TrimSpace(answer[len(prefix):])
	}
	return answer
}

// Short, common French function words. Anything matching two of these, or
// carrying French diacritics, reads as French.
var frenchMarkers = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {},
	"est": {}, "que": {}, "qu'est-ce": {}, "quoi": {}, "comment": {},
	"pourquoi": {}, "dans": {}, "pour": {}, "avec": {}, "sur": {},
	"je": {}, "tu": {}, "il": {}, "elle": {}, "nous": {}, "vous": {},
	"ça": {}, "ce": {}, "cette": {}, "mon": {}, "ma": {}, "et": {},
	"ou": {}, "fonction": {}, "liste": {}, "chaîne": {}, "définis": {},
	"explique": {}, "donne": {}, "écrire": {}, "faire": {},
}

// detectLanguage decides between "fr" and "en". Questions too short to
// carry a signal default to English, like the original heuristic.
func detectLanguage(question string) string {
	trimmed := strings.TrimSpace(question)
	if utf8.RuneCountInString(trimmed) < 10 {
		return "en"
	}

	if strings.ContainsAny(trimmed, "àâçéèêëîïôùûüÿœ") {
		return "fr"
	}

	hits := 0
	for _, word := range strings.Fields(strings.ToLower(trimmed)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if _, ok := frenchMarkers[word]; ok {
			hits++
		}
	}
	if hits >= 2 {
		return "fr"
	}
	return "en"
}
