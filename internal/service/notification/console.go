package notification

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

type consoleSender struct {
	w io.Writer
}

// NewConsoleSender 打印到标准输出, 未配置任何渠道时使用
func NewConsoleSender(w io.Writer) Sender {
	if w == nil {
		w = os.Stdout
	}
	return &consoleSender{w: w}
}

func (c *consoleSender) Name() string {
	return "console"
}

func (c *consoleSender) Send(ctx context.Context, title, body string) error {
	slog.Info("notification", "title", title, "length", len(body))
	_, err := fmt.Fprintf(c.w, "==== %s ====\n%s\n", title, body)
	return err
}
