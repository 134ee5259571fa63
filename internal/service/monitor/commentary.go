package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KNICEX/volume-radar/internal/service/llm"
	"github.com/KNICEX/volume-radar/internal/service/strategy"
	"github.com/KNICEX/volume-radar/pkg/decimalx"
	"github.com/samber/lo"
)

// 发给模型的异动条数上限
const maxPromptFindings = 30

type llmCommentator struct {
	llmSvc  llm.Service
	timeout time.Duration
}

func NewLLMCommentator(llmSvc llm.Service, timeout time.Duration) Commentator {
	return &llmCommentator{
		llmSvc:  llmSvc,
		timeout: timeout,
	}
}

func (c *llmCommentator) Comment(ctx context.Context, findings []strategy.Finding) (string, error) {
	if len(findings) == 0 {
		return "", nil
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	answer, err := c.llmSvc.AskOnce(ctx, llm.Question{Content: buildPrompt(findings)})
	if err != nil {
		return "", fmt.Errorf("ask llm: %w", err)
	}
	return extractAnswer(answer), nil
}

func buildPrompt(findings []strategy.Finding) string {
	lines := lo.Map(lo.Slice(findings, 0, maxPromptFindings), func(f strategy.Finding, index int) string {
		switch f.Kind {
		case strategy.KindDailyTurnover:
			return fmt.Sprintf("- %s %s 日成交额 %s", f.Source, f.Instrument.ID, decimalx.Humanize(f.DailyQuoteVolume))
		default:
			return fmt.Sprintf("- %s %s %s 成交量 %s, 是参考值的 %sx, 价格 %s, 当天成交额 %s",
				f.Source, f.Instrument.ID, f.Interval, decimalx.Humanize(f.CurrentVolume),
				f.Ratio.StringFixed(1), f.Price.String(), decimalx.Humanize(f.DailyQuoteVolume))
		}
	})
	return "以下是本轮扫描到的永续合约成交量异动:\n" +
		strings.Join(lines, "\n") +
		"\n请用不超过150字的中文简短点评这些异动, 指出值得关注的合约, 不要给出投资建议, 直接回复正文, 不要使用代码块。"
}

// extractAnswer 模型有时仍会包一层代码块, 去掉首尾的 ``` 行
func extractAnswer(answer llm.Answer) string {
	content := strings.Trim(answer.Content, "\n ")
	lines := strings.Split(content, "\n")
	if len(lines) >= 3 && strings.HasPrefix(lines[0], "```") && strings.HasPrefix(lines[len(lines)-1], "```") {
		content = strings.Join(lines[1:len(lines)-1], "\n")
	}
	return strings.TrimSpace(content)
}
