package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultGraderModel = "gemini-1.5-flash-latest"

	graderSystemInstruction = "Você é um corretor experiente de redações do ENEM. " +
		"Avalie a redação segundo as cinco competências oficiais (c1 a c5), atribuindo a cada uma " +
		"uma nota do conjunto {0, 40, 80, 120, 160, 200}. A nota total é a soma das cinco competências. " +
		"Responda APENAS com um objeto JSON, sem texto adicional, no formato: " +
		`{"competencias":{"c1":{"nota":0,"comentario":""},"c2":{"nota":0,"comentario":""},` +
		`"c3":{"nota":0,"comentario":""},"c4":{"nota":0,"comentario":""},"c5":{"nota":0,"comentario":""}},` +
		`"total":0,"feedback_geral":"","pontos_fortes":[],"pontos_fracos":[],` +
		`"analise_texto":"","sugestoes_melhoria":[]}`
)

// ErrContentBlocked marks grading calls rejected by the provider's content
// safety filters.
var ErrContentBlocked = errors.New("content blocked by safety filters")

// Grader produces a raw grading response for an essay. Implementations return
// whatever text the model emitted; turning it into a Grade is the caller's
// problem.
type Grader interface {
	Grade(ctx context.Context, topic, text string) (string, error)
}

// GeminiGrader grades essays through the Gemini API.
type GeminiGrader struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
}

func NewGeminiGrader(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*GeminiGrader, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	if modelName == "" {
		modelName = defaultGraderModel
	}

	return &GeminiGrader{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
	}, nil
}

func (g *GeminiGrader) Close() {
	if g.client != nil {
		if err := g.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (g *GeminiGrader) Grade(ctx context.Context, topic, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(graderSystemInstruction)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
	}

	prompt := fmt.Sprintf("Tema da redação: %s\n\nTexto da redação:\n%s", topic, text)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini grading request failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return "", fmt.Errorf("%w: candidate finished for safety", ErrContentBlocked)
		}
		return "", errors.New("gemini returned no candidates")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if out.Len() == 0 {
		return "", errors.New("gemini response contained no text parts")
	}

	return out.String(), nil
}
