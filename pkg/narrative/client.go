// Package narrative authors prose summaries of the merged roadmap feed
// using the Anthropic API.
package narrative

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/model"
)

// Writer produces a narrative digest for a set of merged records.
type Writer interface {
	Digest(ctx context.Context, records []model.CanonicalRecord) (string, error)
}

const systemPrompt = `You are a Microsoft 365 change-management analyst. You receive a
table of upcoming M365 Roadmap features and write a concise narrative digest
for IT administrators: group related features, call out items that need admin
action before rollout, and note government cloud (GCC, GCC High, DoD)
availability where it differs from Worldwide. Use markdown headings and keep
each feature reference in the form RM<id>. Never invent feature IDs, dates,
or statuses that are not in the input.`

// messagesAPI is the slice of the SDK the writer calls, kept narrow so
// tests can fake it.
type messagesAPI interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

type sdkWriter struct {
	messages  messagesAPI
	model     string
	maxTokens int64
}

// Option configures the writer.
type Option func(*sdkWriter)

// WithMessages overrides the SDK messages service (for testing).
func WithMessages(m messagesAPI) Option {
	return func(w *sdkWriter) {
		w.messages = m
	}
}

// NewWriter creates a narrative writer backed by the Anthropic SDK.
func NewWriter(apiKey, modelID string, maxTokens int, opts ...Option) Writer {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	w := &sdkWriter{
		messages:  &client.Messages,
		model:     modelID,
		maxTokens: int64(maxTokens),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *sdkWriter) Digest(ctx context.Context, records []model.CanonicalRecord) (string, error) {
	if len(records) == 0 {
		return "", eris.New("narrative: no records to summarize")
	}

	msg, err := w.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(w.model),
		MaxTokens: w.maxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(renderPrompt(records))),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "narrative: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", eris.New("narrative: empty completion")
	}

	zap.L().Info("narrative: digest generated",
		zap.Int("records", len(records)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return text, nil
}

// renderPrompt flattens records into a pipe table the model can cite from.
func renderPrompt(records []model.CanonicalRecord) string {
	var b strings.Builder
	b.WriteString("Write the digest for these roadmap features:\n\n")
	b.WriteString("ID | Title | Product | Status | Phase | Dates | Clouds\n")
	for _, r := range records {
		fmt.Fprintf(&b, "RM%d | %s | %s | %s | %s | %s | %s\n",
			r.ID, r.Title, r.Product, r.Status, r.ReleasePhase,
			r.TargetedDates, strings.Join(r.CloudInstances, ", "),
		)
	}
	return b.String()
}
