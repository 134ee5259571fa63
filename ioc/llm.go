package ioc

import (
	"context"
	"time"

	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/service/llm"
	"github.com/KNICEX/volume-radar/internal/service/llm/gemini"
	"github.com/KNICEX/volume-radar/internal/service/monitor"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

func InitGeminiCli(cfg config.Gemini) *genai.Client {
	if len(cfg.ApiKey) == 0 {
		panic("no gemini api key set")
	}

	cli, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.ApiKey[0]))
	if err != nil {
		panic(err)
	}
	return cli
}

func InitLLMService(cfg config.Gemini) llm.Service {
	return gemini.NewService(InitGeminiCli(cfg),
		gemini.WithModel(cfg.Model),
		gemini.WithTemperature(0.3),
		gemini.WithMaxOutputTokens(512),
	)
}

// InitCommentator 没有开启时返回 nil
func InitCommentator(cfg config.Gemini) monitor.Commentator {
	if !cfg.Enabled {
		return nil
	}
	return monitor.NewLLMCommentator(InitLLMService(cfg), 30*time.Second)
}
