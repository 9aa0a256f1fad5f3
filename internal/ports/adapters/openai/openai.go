package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/mardev60/shortZ-tube/internal/redact"
	"github.com/mardev60/shortZ-tube/internal/types"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = "You are an expert in viral video content creation. Your task is to analyze video transcripts " +
	"and identify the most potentially viral moments that would make great short-form content."

// rankedList is the structured answer the model must produce.
type rankedList struct {
	Segments []types.RankedMoment `json:"segments" jsonschema_description:"Selected moments ordered by rank"`
}

var rankedListSchema = generateSchema[rankedList]()

func generateSchema[T any]() any {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

type Adapter struct {
	key    string
	model  string
	client oai.Client
}

// New builds an oracle against any OpenAI-compatible chat completions API.
// Retries are disabled: a failed selection fails the job.
func New(apiKey, model, baseURL string, opts ...option.RequestOption) *Adapter {
	if model == "" {
		model = defaultModel
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(normalizeBaseURL(baseURL) + "/"),
		option.WithMaxRetries(0),
	}
	return &Adapter{
		key:    apiKey,
		model:  model,
		client: oai.NewClient(append(base, opts...)...),
	}
}

// Rank returns the model's raw ranking. It does not validate the count or
// the ranges; the caller owns that.
func (a *Adapter) Rank(ctx context.Context, tr types.Transcript, targetSec float64, count int) ([]types.RankedMoment, error) {
	prompt, err := buildPrompt(tr, targetSec, count)
	if err != nil {
		return nil, &types.OracleError{Err: err}
	}

	resp, err := a.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: oai.ChatModel(a.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(prompt),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &oai.ResponseFormatJSONSchemaParam{
				JSONSchema: oai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "viral_segments",
					Description: oai.String("Ranked viral moments of a transcript"),
					Schema:      rankedListSchema,
					Strict:      oai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, &types.OracleError{Err: fmt.Errorf("chat completion (model=%s): %s", a.model, redact.Truncate(redact.Secrets(err.Error(), a.key), 400))}
	}
	if len(resp.Choices) == 0 {
		return nil, &types.OracleError{Err: errors.New("no choices in response")}
	}

	moments, err := parseRanking(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &types.OracleError{Err: err}
	}
	return moments, nil
}

type promptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func buildPrompt(tr types.Transcript, targetSec float64, count int) (string, error) {
	segs := make([]promptSegment, len(tr.Segments))
	for i, s := range tr.Segments {
		segs[i] = promptSegment{Start: s.Start, End: s.End, Text: s.Text}
	}
	tb, err := json.Marshal(segs)
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}
	dur := fmt.Sprintf("%g seconds", targetSec)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the transcript below and return exactly %d segments with the best chance of going viral ", count)
	b.WriteString("(emotional peaks, humor, dramatic tension, surprising facts).\n\n")
	fmt.Fprintf(&b, "Each segment should last about %s; up to 15%% off is fine so segments start at the beginning of a sentence "+
		"and end when it completes. Never cut speech mid-sentence. Consecutive transcript parts may be merged.\n\n", dur)
	fmt.Fprintf(&b, "Rank them from 1 (strongest viral potential) to %d. start and end are seconds into the video. ", count)
	b.WriteString("reason is a short explanation written in the transcript's language.\n\n")
	b.WriteString(`Answer only with JSON of the form {"segments":[{"rank":1,"start":0,"end":30,"reason":"..."}]}.`)
	b.WriteString("\n\nTranscript JSON:\n")
	b.Write(tb)
	return b.String(), nil
}

// parseRanking accepts the schema object, or a bare array when a gateway
// ignored response_format.
func parseRanking(content string) ([]types.RankedMoment, error) {
	t := stripFences(content)
	if strings.HasPrefix(t, "[") {
		var arr []types.RankedMoment
		if err := json.Unmarshal([]byte(t), &arr); err != nil {
			return nil, fmt.Errorf("parse ranking array: %w", err)
		}
		return arr, nil
	}

	clean, err := extractJSONObject(t)
	if err != nil {
		return nil, err
	}
	var out rankedList
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("parse ranking: %w", err)
	}
	return out.Segments, nil
}

func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	return t
}

func extractJSONObject(s string) (string, error) {
	t := stripFences(s)
	if t == "" {
		return "", errors.New("empty content")
	}
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}
	return "", fmt.Errorf("could not locate JSON object in: %q", redact.Truncate(t, 200))
}
