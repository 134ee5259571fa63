package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Result 发送结果, 发送失败不会 panic, 只在 Err 里体现
type Result struct {
	Sent    bool
	Channel string
	Err     error
}

type Notifier interface {
	Notify(ctx context.Context, title, body string) Result
}

// Sender 具体的发送渠道
type Sender interface {
	Name() string
	Send(ctx context.Context, title, body string) error
}

type senderNotifier struct {
	sender   Sender
	retries  uint64
	interval time.Duration
}

type Option func(n *senderNotifier)

// WithRetry 发送失败后按指数退避重试
func WithRetry(retries uint64, initial time.Duration) Option {
	return func(n *senderNotifier) {
		n.retries = retries
		n.interval = initial
	}
}

// New 把 Sender 包装成 Notifier
func New(sender Sender, opts ...Option) Notifier {
	n := &senderNotifier{sender: sender}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *senderNotifier) Notify(ctx context.Context, title, body string) (res Result) {
	res.Channel = n.sender.Name()
	defer func() {
		if r := recover(); r != nil {
			res.Sent = false
			res.Err = fmt.Errorf("%s notifier panic: %v", res.Channel, r)
		}
	}()

	op := func() error {
		return n.sender.Send(ctx, title, body)
	}
	var err error
	if n.retries == 0 {
		err = op()
	} else {
		b := backoff.NewExponentialBackOff()
		if n.interval > 0 {
			b.InitialInterval = n.interval
		}
		err = backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, n.retries), ctx))
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.Sent = true
	return res
}
