package llm

import (
	"context"
)

type Question struct {
	Content string
}

type Answer struct {
	Content     string
	InputToken  int
	OutputToken int
}

// Service 单轮问答
type Service interface {
	AskOnce(ctx context.Context, q Question) (Answer, error)
}
