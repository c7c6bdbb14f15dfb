package generativeAI

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// MockGenerator is a mock implementation of contentGenerator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

func TestAIClient_GenerateContent(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		generator := new(MockGenerator)
		client := &AIClient{models: generator, model: "gemini-2.0-flash", temperature: 1}
		generator.On("GenerateContent", mock.Anything, "gemini-2.0-flash", genai.Text("describe"),
			mock.MatchedBy(func(c *genai.GenerateContentConfig) bool { return *c.Temperature == 1 }),
		).Return(textResponse(`{"description": "Un museo"}`), nil).Once()

		text, err := client.GenerateContent(ctx, "describe")
		require.NoError(t, err)
		assert.Equal(t, `{"description": "Un museo"}`, text)
		generator.AssertExpectations(t)
	})

	t.Run("api error", func(t *testing.T) {
		generator := new(MockGenerator)
		client := &AIClient{models: generator, model: "gemini-2.0-flash"}
		generator.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("throttled")).Once()

		_, err := client.GenerateContent(ctx, "describe")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "throttled")
	})
}

func TestAIClient_StartChatSession_NoClient(t *testing.T) {
	client := &AIClient{model: "gemini-2.0-flash"}
	_, err := client.StartChatSession(context.Background(), "entrevista")
	assert.Error(t, err)
}

func TestNewGenaiClient_MissingKey(t *testing.T) {
	t.Setenv("GOVIBES_TEST_EMPTY_KEY", "")
	_, err := NewGenaiClient(context.Background(), "GOVIBES_TEST_EMPTY_KEY")
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}
