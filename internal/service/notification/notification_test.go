package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name   string
	fails  int32
	calls  atomic.Int32
	panics bool
}

func (f *fakeSender) Name() string {
	return f.name
}

func (f *fakeSender) Send(ctx context.Context, title, body string) error {
	n := f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	if n <= f.fails {
		return errors.New("temporary failure")
	}
	return nil
}

func TestNotifier_Result(t *testing.T) {
	testCases := []struct {
		name      string
		sender    *fakeSender
		opts      []Option
		wantSent  bool
		wantCalls int32
	}{
		{name: "ok", sender: &fakeSender{name: "a"}, wantSent: true, wantCalls: 1},
		{name: "fail without retry", sender: &fakeSender{name: "a", fails: 1}, wantSent: false, wantCalls: 1},
		{name: "retry then ok", sender: &fakeSender{name: "a", fails: 2}, opts: []Option{WithRetry(2, time.Millisecond)}, wantSent: true, wantCalls: 3},
		{name: "retries exhausted", sender: &fakeSender{name: "a", fails: 5}, opts: []Option{WithRetry(1, time.Millisecond)}, wantSent: false, wantCalls: 2},
		{name: "panic is reported", sender: &fakeSender{name: "a", panics: true}, wantSent: false, wantCalls: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := New(tc.sender, tc.opts...).Notify(context.Background(), "title", "body")
			assert.Equal(t, tc.wantSent, res.Sent)
			assert.Equal(t, "a", res.Channel)
			assert.Equal(t, tc.wantSent, res.Err == nil)
			assert.Equal(t, tc.wantCalls, tc.sender.calls.Load())
		})
	}
}

func TestMulti(t *testing.T) {
	ok := New(&fakeSender{name: "ok"})
	bad := New(&fakeSender{name: "bad", fails: 10})

	res := Multi(bad, ok).Notify(context.Background(), "t", "b")
	assert.True(t, res.Sent)
	assert.NoError(t, res.Err)

	res = Multi(bad, bad).Notify(context.Background(), "t", "b")
	assert.False(t, res.Sent)
	assert.Error(t, res.Err)

	res = Multi().Notify(context.Background(), "t", "b")
	assert.False(t, res.Sent)
	assert.Error(t, res.Err)
}

func TestConsoleSender(t *testing.T) {
	var buf bytes.Buffer
	res := New(NewConsoleSender(&buf)).Notify(context.Background(), "Radar 发现2个爆量", "| a | b |")
	assert.True(t, res.Sent)
	assert.Contains(t, buf.String(), "Radar 发现2个爆量")
	assert.Contains(t, buf.String(), "| a | b |")
}

func TestServerChanSender(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		respBody string
		wantErr  bool
	}{
		{name: "ok", status: http.StatusOK, respBody: `{"code":0,"message":""}`},
		{name: "api error", status: http.StatusOK, respBody: `{"code":40001,"message":"bad key"}`, wantErr: true},
		{name: "http error", status: http.StatusInternalServerError, respBody: `oops`, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/SCTkey.send", r.URL.Path)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "标题", r.PostForm.Get("title"))
				assert.Equal(t, "内容", r.PostForm.Get("desp"))
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.respBody))
			}))
			defer srv.Close()

			err := NewServerChanSender("SCTkey", srv.URL).Send(context.Background(), "标题", "内容")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestServerChanSender_NoKey(t *testing.T) {
	err := NewServerChanSender("", "").Send(context.Background(), "t", "b")
	assert.Error(t, err)
}

func TestWebhookSender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "t", payload["title"])
		assert.Equal(t, "b", payload["body"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	assert.NoError(t, NewWebhookSender(srv.URL).Send(context.Background(), "t", "b"))

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	assert.Error(t, NewWebhookSender(bad.URL).Send(context.Background(), "t", "b"))
}

type mockBot struct {
	mock.Mock
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func TestTelegramSender(t *testing.T) {
	bot := new(mockBot)
	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 42 && strings.HasPrefix(msg.Text, "title\n\nbody") &&
			utf8.RuneCountInString(msg.Text) <= telegramMaxLength
	})).Return(nil).Once()
	bot.On("Send", mock.Anything).Return(errors.New("forbidden")).Once()

	s := NewTelegramSender(bot, 42)
	assert.NoError(t, s.Send(context.Background(), "title", "body"+strings.Repeat("x", 5000)))
	assert.Error(t, s.Send(context.Background(), "title", "body"))
	bot.AssertExpectations(t)
}

// captureLog 把默认 logger 换成写入 buffer 的 text handler
func captureLog(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestNotifier_FailureLoggedByCaller(t *testing.T) {
	buf := captureLog(t)

	res := New(&fakeSender{name: "a", fails: 1}).Notify(context.Background(), "title", "body")
	assert.False(t, res.Sent)
	assert.Error(t, res.Err)
	assert.Empty(t, buf.String())

	res = Multi(New(&fakeSender{name: "a", fails: 1}), New(&fakeSender{name: "b", fails: 1})).
		Notify(context.Background(), "title", "body")
	assert.False(t, res.Sent)
	assert.Empty(t, buf.String())

	res = Multi(New(&fakeSender{name: "a", fails: 1}), New(&fakeSender{name: "b"})).
		Notify(context.Background(), "title", "body")
	assert.True(t, res.Sent)
	assert.Equal(t, 1, strings.Count(buf.String(), "some notify channels failed"))
	assert.NotContains(t, buf.String(), "level=ERROR")
}

func TestLazyTelegramSender(t *testing.T) {
	bot := new(mockBot)
	bot.On("Send", mock.Anything).Return(nil).Twice()

	var created int
	s := NewLazyTelegramSender(func() (BotAPI, error) {
		created++
		if created == 1 {
			return nil, errors.New("getMe: unauthorized")
		}
		return bot, nil
	}, 42)
	assert.Equal(t, 0, created)

	err := s.Send(context.Background(), "title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init bot")

	assert.NoError(t, s.Send(context.Background(), "title", "body"))
	assert.NoError(t, s.Send(context.Background(), "title", "body"))
	assert.Equal(t, 2, created)
	bot.AssertExpectations(t)
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		name  string
		body  string
		limit int
		want  string
	}{
		{name: "short", body: "abc", limit: 10, want: "abc"},
		{name: "no limit", body: "abc", limit: 0, want: "abc"},
		{name: "cut with note", body: strings.Repeat("量", 30), limit: 20, want: strings.Repeat("量", 20-utf8.RuneCountInString(truncatedNote)) + truncatedNote},
		{name: "limit below note", body: "abcdefgh", limit: 3, want: "abc"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Truncate(tc.body, tc.limit)
			assert.Equal(t, tc.want, got)
			if tc.limit > 0 {
				assert.LessOrEqual(t, utf8.RuneCountInString(got), tc.limit)
			}
		})
	}
}
