// Package openai adapts an OpenAI-compatible chat completion API into the
// classification oracle used for fuzzy matching and image classification.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/domain"
	"github.com/civic-cloud/lostfound/internal/metrics"
)

// Operation labels for oracle metrics.
const (
	opSelect   = "select_closest"
	opClassify = "classify_image"
)

// Oracle is a classification oracle backed by an OpenAI-compatible API.
type Oracle struct {
	client      *openai.Client
	model       string
	visionModel string
	timeout     time.Duration
	logger      *zap.Logger
}

// Config holds the oracle provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// New creates an OpenAI-compatible classification oracle.
func New(cfg *Config) *Oracle {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}

	return &Oracle{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		visionModel: visionModel,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

const selectSystemPrompt = `与えられた入力に最も近いものを選択肢の中から1つ選んでください。
回答は選択肢の文字列そのものだけを返し、説明や記号は付けないでください。`

// SelectClosest implements domain.Oracle. The raw answer is returned trimmed;
// membership in choices is the caller's contract to enforce.
func (o *Oracle) SelectClosest(
	ctx context.Context, input string, choices []string, shots []domain.FewShot,
) (string, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2+2*len(shots))
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: selectSystemPrompt + "\n選択肢: " + strings.Join(choices, "、"),
	})
	for _, shot := range shots {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: shot.Input},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: shot.Output},
		)
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: 0,
	})
	duration := time.Since(start)

	if err != nil {
		metrics.OracleRequestsTotal.WithLabelValues(o.model, opSelect, "error").Inc()
		metrics.OracleErrorsTotal.WithLabelValues(o.model, opSelect, "api_error").Inc()
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.OracleRequestsTotal.WithLabelValues(o.model, opSelect, "error").Inc()
		metrics.OracleErrorsTotal.WithLabelValues(o.model, opSelect, "empty_response").Inc()
		return "", fmt.Errorf("empty completion: %w", domain.ErrOracleUnavailable)
	}

	metrics.OracleRequestsTotal.WithLabelValues(o.model, opSelect, "success").Inc()
	metrics.OracleRequestDuration.WithLabelValues(o.model, opSelect).Observe(duration.Seconds())

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	o.logger.Debug("oracle selection",
		zap.String("input", input),
		zap.String("answer", answer))

	return answer, nil
}

const classifySystemPrompt = `あなたは拾得物の写真を分類する係員です。
写真を見て、次のJSONだけを返してください(説明は不要):
{"color": "<色の候補から1つ>", "category": "<分類の候補から1つ>", "tags": ["<キーワード候補から最大3つ>"]}`

// classifyAnswer mirrors the JSON shape the oracle is asked to produce.
type classifyAnswer struct {
	Color    string   `json:"color"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// ClassifyImage implements domain.Oracle using a vision model with a JSON
// response format.
func (o *Oracle) ClassifyImage(
	ctx context.Context, image []byte, contentType string,
	colors, categories, keywords []string,
) (domain.ImageClassification, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))
	instruction := classifySystemPrompt +
		"\n色の候補: " + strings.Join(colors, "、") +
		"\n分類の候補: " + strings.Join(categories, "、") +
		"\nキーワード候補: " + strings.Join(keywords, "、")

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.visionModel,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: instruction,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		Temperature: 0,
	})
	duration := time.Since(start)

	if err != nil {
		metrics.OracleRequestsTotal.WithLabelValues(o.visionModel, opClassify, "error").Inc()
		metrics.OracleErrorsTotal.WithLabelValues(o.visionModel, opClassify, "api_error").Inc()
		return domain.ImageClassification{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.OracleRequestsTotal.WithLabelValues(o.visionModel, opClassify, "error").Inc()
		metrics.OracleErrorsTotal.WithLabelValues(o.visionModel, opClassify, "empty_response").Inc()
		return domain.ImageClassification{}, fmt.Errorf("empty completion: %w", domain.ErrOracleUnavailable)
	}

	raw := resp.Choices[0].Message.Content
	var answer classifyAnswer
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &answer); err != nil {
		metrics.OracleRequestsTotal.WithLabelValues(o.visionModel, opClassify, "error").Inc()
		metrics.OracleErrorsTotal.WithLabelValues(o.visionModel, opClassify, "bad_response").Inc()
		o.logger.Warn("unparseable oracle classification", zap.String("raw", raw))
		return domain.ImageClassification{}, fmt.Errorf("parse classification: %w", domain.ErrOracleBadResponse)
	}

	metrics.OracleRequestsTotal.WithLabelValues(o.visionModel, opClassify, "success").Inc()
	metrics.OracleRequestDuration.WithLabelValues(o.visionModel, opClassify).Observe(duration.Seconds())

	return domain.ImageClassification{
		Color:    strings.TrimSpace(answer.Color),
		Category: strings.TrimSpace(answer.Category),
		Tags:     answer.Tags,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (o *Oracle) HealthCheck(ctx context.Context) error {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (o *Oracle) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.timeout)
}

// stripCodeFence removes a markdown code fence some models wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrOracleUnavailable for correct 502
// mapping. Timeouts additionally carry context.DeadlineExceeded so callers
// can tell a slow oracle from a down one.
func parseAPIError(err error) error {
	wrap := domain.ErrOracleUnavailable

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("oracle request timed out: %w: %w", wrap, context.DeadlineExceeded)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("oracle API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("oracle API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("oracle request failed: %w", wrap)
}
