package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"google.golang.org/genai"
)

// MaxDescriptionLength is the maximum description length sent to the model.
const MaxDescriptionLength = 200

// MinConfidence is the confidence below which a suggestion should be ignored.
const MinConfidence = 0.5

// suggestTimeout bounds one SuggestCategory call.
const suggestTimeout = 10 * time.Second

var (
	errNotInitialized    = errors.New("gemini client not initialized")
	errEmptyDescription  = errors.New("description is required")
	errNoCategories      = errors.New("no categories available")
	errNoTextContent     = errors.New("no text content in response")
	errNoJSONInResponse  = errors.New("no JSON found in response")
	errConfidenceRange   = errors.New("confidence out of range")
	errUnknownSuggestion = errors.New("suggested category not in available categories")
)

// CategorySuggestion is the model's pick for an expense description.
type CategorySuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SuggestCategory asks Gemini which of availableCategories fits description.
// The returned category always uses the spelling of availableCategories.
func (c *Client) SuggestCategory(ctx context.Context, description string, availableCategories []string) (*CategorySuggestion, error) {
	if c == nil || c.generator == nil {
		return nil, errNotInitialized
	}
	if strings.TrimSpace(description) == "" {
		return nil, errEmptyDescription
	}
	if len(availableCategories) == 0 {
		return nil, errNoCategories
	}

	descHash := hashDescription(description)
	log := logger.Log.With().Str("component", "gemini").Str("description_hash", descHash).Logger()

	ctx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	temp := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(300),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "Eres una API JSON. Responde SOLO con un objeto JSON válido, sin texto adicional."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {
					Type:        genai.TypeString,
					Enum:        availableCategories,
					Description: "La categoría más adecuada de la lista",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confianza entre 0 y 1",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "Explicación breve",
				},
			},
			Required: []string{"category", "confidence", "reasoning"},
		},
	}

	prompt := buildCategorySuggestionPrompt(sanitizeDescription(description), availableCategories)
	text, err := c.generateText(ctx, prompt, config)
	if err != nil {
		log.Error().Err(err).Msg("Gemini API call failed")
		return nil, err
	}

	jsonText := extractJSON(text)
	if jsonText == "" {
		log.Warn().Msg("No JSON found in Gemini response")
		return nil, errNoJSONInResponse
	}

	var suggestion CategorySuggestion
	if err := json.Unmarshal([]byte(jsonText), &suggestion); err != nil {
		log.Error().Err(err).Msg("Failed to parse Gemini response")
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	matched := false
	for _, cat := range availableCategories {
		if strings.EqualFold(cat, strings.TrimSpace(suggestion.Category)) {
			suggestion.Category = cat
			matched = true
			break
		}
	}
	if !matched {
		log.Warn().Str("suggested_category", suggestion.Category).Msg("Suggested category not in available list")
		return nil, fmt.Errorf("%w: %q", errUnknownSuggestion, suggestion.Category)
	}

	if suggestion.Confidence < 0 || suggestion.Confidence > 1 {
		return nil, fmt.Errorf("%w: %f", errConfidenceRange, suggestion.Confidence)
	}

	suggestion.Reasoning = sanitizeReasoning(suggestion.Reasoning)

	log.Debug().
		Str("category", suggestion.Category).
		Float64("confidence", suggestion.Confidence).
		Msg("Category suggested")

	return &suggestion, nil
}

func buildCategorySuggestionPrompt(description string, categories []string) string {
	return fmt.Sprintf(`Clasifica este gasto personal: "%s"

Categorías disponibles:
- %s

Reglas:
- Elige la categoría MÁS adecuada de la lista
- "Comida" para supermercado, restaurantes, cafés y comida a domicilio
- "Ocio" para cine, conciertos, viajes de placer y suscripciones de entretenimiento
- "Transporte" para taxi, metro, autobús, tren, gasolina y parking
- "Casa" para alquiler, luz, agua, gas, internet y muebles
- "Otros" cuando ninguna encaje
- Confianza alta (0.8-1.0) si es obvio, baja (0.5-0.7) si es ambiguo

Devuelve solo JSON:
{"category": "nombre exacto", "confidence": 0.0-1.0, "reasoning": "explicación breve"}`,
		description, strings.Join(categories, "\n- "))
}

// extractJSON returns the outermost JSON object in text. The model sometimes
// wraps it in prose or code fences despite the JSON response type.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return ""
	}

	return text[start : end+1]
}

// SanitizeForPrompt neutralizes quotes and control characters, collapses
// whitespace and truncates input to maxLength bytes.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.Join(strings.Fields(input), " ")

	if len(input) > maxLength {
		input = strings.TrimSpace(input[:maxLength])
	}

	return input
}

func sanitizeDescription(description string) string {
	return SanitizeForPrompt(description, MaxDescriptionLength)
}

func sanitizeReasoning(reasoning string) string {
	reasoning = strings.Join(strings.Fields(reasoning), " ")

	const maxReasoningLength = 500
	if len(reasoning) > maxReasoningLength {
		reasoning = strings.TrimSpace(reasoning[:maxReasoningLength])
	}

	return reasoning
}

// hashDescription identifies a description in logs without revealing it.
func hashDescription(description string) string {
	hash := sha256.Sum256([]byte(description))
	return hex.EncodeToString(hash[:8])
}
