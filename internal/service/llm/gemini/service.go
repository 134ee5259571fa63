package gemini

import (
	"context"
	"strings"

	"github.com/KNICEX/volume-radar/internal/service/llm"
	"github.com/google/generative-ai-go/genai"
)

const DefaultModel = "gemini-2.0-flash"

type Service struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewService(client *genai.Client, opts ...Option) llm.Service {
	svc := &Service{
		client: client,
		model:  client.GenerativeModel(DefaultModel),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type Option func(service *Service)

// WithModel 需要放在其它 Option 之前, 会重建 model
func WithModel(name string) Option {
	return func(service *Service) {
		if name == "" {
			return
		}
		service.model = service.client.GenerativeModel(name)
	}
}

func WithTemperature(temp float32) Option {
	return func(service *Service) {
		service.model.SetTemperature(temp)
	}
}

func WithMaxOutputTokens(n int32) Option {
	return func(service *Service) {
		service.model.SetMaxOutputTokens(n)
	}
}

func WithSystemInstruction(text string) Option {
	return func(service *Service) {
		service.model.SystemInstruction = genai.NewUserContent(genai.Text(text))
	}
}

func (s *Service) AskOnce(ctx context.Context, q llm.Question) (llm.Answer, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(q.Content))
	if err != nil {
		return llm.Answer{}, err
	}
	return parseResponse(resp), nil
}

func parseResponse(resp *genai.GenerateContentResponse) llm.Answer {
	var ans llm.Answer
	if resp == nil {
		return ans
	}
	if resp.UsageMetadata != nil {
		ans.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		ans.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ans
	}
	var resStr strings.Builder
	for i, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		text, ok := part.(genai.Text)
		if !ok {
			// 非文本内容直接丢弃整个回答
			return llm.Answer{InputToken: ans.InputToken, OutputToken: ans.OutputToken}
		}
		if i > 0 {
			resStr.WriteString("\n")
		}
		resStr.WriteString(string(text))
	}
	ans.Content = resStr.String()
	return ans
}
