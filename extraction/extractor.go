// Package extraction sends medicine label images to Gemini and parses the
// model's free-form response into an untyped record of label fields.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/medlabel/labelscan-api/interfaces"
	"github.com/medlabel/labelscan-api/logging"
	"google.golang.org/genai"
)

// Fixed messages surfaced to callers when extraction fails. Anything more
// specific stays in the server-side logs.
const (
	MsgParseFailure    = "Failed to parse model response as JSON."
	MsgInternalFailure = "An internal error occurred during processing."
)

// extractionPrompt asks for nothing but the JSON object. The response still
// goes through CleanModelResponse before parsing.
const extractionPrompt = `Analyze the image of this medicine label. Extract the following information and return it as a clean JSON object.
Do not include any introductory text or markdown formatting like ` + "```json" + `.

The keys in the JSON should be:
- "medicine_name"
- "manufacturer"
- "active_salts" (as a list of strings)
- "expiry_date" (in DD-MM-YYYY format if possible, otherwise MM-YYYY)
- "batch_number"

If a piece of information is not available, set its value to null.`

// Compile-time check to ensure GeminiExtractor implements Extractor
var _ interfaces.Extractor = (*GeminiExtractor)(nil)

// GeminiExtractor implements the Extractor interface with one Gemini call
// per image. It keeps no state between calls besides the shared client.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates the Gemini client once for the process lifetime
func NewGeminiExtractor(ctx context.Context, apiKey string, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiExtractor{
		client: client,
		model:  model,
	}, nil
}

// Extract sends the image at imagePath together with the instruction prompt
// to the model and parses the response. The returned error is always an
// *interfaces.ExtractionError carrying a fixed caller-safe message.
func (e *GeminiExtractor) Extract(ctx context.Context, imagePath string) (interfaces.Record, error) {
	extractionID := uuid.NewString()
	start := time.Now()

	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		logging.Error("Failed to read uploaded image", "extraction_id", extractionID, "error", err)
		return nil, &interfaces.ExtractionError{Message: MsgInternalFailure}
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						Data:     imageBytes,
						MIMEType: http.DetectContentType(imageBytes),
					},
				},
			},
		},
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		logging.Error("Gemini GenerateContent failed",
			"extraction_id", extractionID,
			"model", e.model,
			"error", err)
		return nil, &interfaces.ExtractionError{Message: MsgInternalFailure}
	}

	rawText := result.Text()
	record, err := parseModelResponse(rawText)
	if err != nil {
		// Keep the offending text server-side for diagnosis
		logging.Error("Model returned non-JSON text",
			"extraction_id", extractionID,
			"model", e.model,
			"raw_response", rawText,
			"error", err)
		return nil, &interfaces.ExtractionError{Message: MsgParseFailure}
	}

	logging.Debug("Extraction completed",
		"extraction_id", extractionID,
		"model", e.model,
		"duration_ms", time.Since(start).Milliseconds())

	return record, nil
}

// parseModelResponse cleans the raw model text and decodes it as a JSON
// object, keeping whatever keys the model produced.
func parseModelResponse(raw string) (interfaces.Record, error) {
	cleaned := CleanModelResponse(raw)

	var record interfaces.Record
	if err := json.Unmarshal([]byte(cleaned), &record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("model response decoded to null")
	}

	return record, nil
}
