package notification

import (
	"context"
	"errors"
	"log/slog"
)

type multiNotifier struct {
	notifiers []Notifier
}

// Multi 依次发给所有渠道, 任意一个成功就算发送成功
// 全部失败时由调用方记录错误, 这里只记录部分渠道失败
func Multi(notifiers ...Notifier) Notifier {
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return &multiNotifier{notifiers: notifiers}
}

func (m *multiNotifier) Notify(ctx context.Context, title, body string) Result {
	res := Result{Channel: "multi"}
	var errs []error
	for _, n := range m.notifiers {
		r := n.Notify(ctx, title, body)
		if r.Sent {
			res.Sent = true
			continue
		}
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if res.Sent {
		if len(errs) > 0 {
			slog.Warn("some notify channels failed", "title", title, "error", errors.Join(errs...))
		}
		return res
	}
	res.Err = errors.Join(errs...)
	if res.Err == nil {
		res.Err = errors.New("no notifier configured")
	}
	return res
}
