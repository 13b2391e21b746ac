package narrative

import (
	"context"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadmap-cli/internal/model"
)

type fakeMessages struct {
	gotParams sdk.MessageNewParams
	reply     string
	err       error
}

func (f *fakeMessages) New(_ context.Context, params sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	f.gotParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &sdk.Message{
		Content: []sdk.ContentBlockUnion{{Type: "text", Text: f.reply}},
	}, nil
}

func TestDigestRendersRecordsIntoPrompt(t *testing.T) {
	fake := &fakeMessages{reply: "## Digest\n\nRM498159 is rolling out."}
	w := NewWriter("key", "claude-sonnet-4-5-20250929", 2048, WithMessages(fake))

	records := []model.CanonicalRecord{
		{
			ID:             498159,
			Title:          "Copilot in Excel",
			Product:        "Microsoft 365 app",
			Status:         model.StatusRollingOut,
			CloudInstances: []string{"GCC", "Worldwide (Standard Multi-Tenant)"},
		},
	}

	out, err := w.Digest(context.Background(), records)
	require.NoError(t, err)
	assert.Contains(t, out, "RM498159")

	require.Len(t, fake.gotParams.Messages, 1)
	prompt := fake.gotParams.Messages[0].Content[0].OfText.Text
	assert.Contains(t, prompt, "RM498159")
	assert.Contains(t, prompt, "Copilot in Excel")
	assert.Contains(t, prompt, "Rolling out")
}

func TestDigestEmptyInput(t *testing.T) {
	w := NewWriter("key", "m", 100, WithMessages(&fakeMessages{}))
	_, err := w.Digest(context.Background(), nil)
	assert.Error(t, err)
}

func TestDigestEmptyCompletion(t *testing.T) {
	w := NewWriter("key", "m", 100, WithMessages(&fakeMessages{reply: "   "}))
	_, err := w.Digest(context.Background(), []model.CanonicalRecord{{ID: 1}})
	assert.ErrorContains(t, err, "empty completion")
}
