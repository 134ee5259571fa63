package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// State 一次运行读取和写回的全部状态
type State struct {
	Cursors map[string]ScanCursor `json:"cursors"`
	Stats   RunStat               `json:"stats"`
}

func NewState() State {
	return State{
		Cursors: make(map[string]ScanCursor),
		Stats:   RunStat{Id: RunStatId},
	}
}

// Cursor 没有记录的数据源返回零值游标
func (s State) Cursor(source string) ScanCursor {
	if c, ok := s.Cursors[source]; ok {
		return c
	}
	return ScanCursor{Source: source}
}

// WithCursor 返回替换了游标的新状态, 原状态不变
func (s State) WithCursor(c ScanCursor) State {
	next := s.Clone()
	next.Cursors[c.Source] = c
	return next
}

func (s State) Clone() State {
	next := State{
		Cursors: make(map[string]ScanCursor, len(s.Cursors)),
		Stats:   s.Stats,
	}
	for k, v := range s.Cursors {
		next.Cursors[k] = v
	}
	return next
}

func EncodeState(s State) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState 缺失字段取默认值
func DecodeState(data []byte) (State, error) {
	s := NewState()
	if err := json.Unmarshal(data, &s); err != nil {
		return NewState(), fmt.Errorf("decode state: %w", err)
	}
	if s.Cursors == nil {
		s.Cursors = make(map[string]ScanCursor)
	}
	for k, c := range s.Cursors {
		if c.Source == "" {
			c.Source = k
			s.Cursors[k] = c
		}
	}
	s.Stats.Id = RunStatId
	return s, nil
}

// HeartbeatDue 零值表示从未发送过
func (s State) HeartbeatDue(now time.Time, interval time.Duration) bool {
	return s.Stats.LastHeartbeatAt.IsZero() || now.Sub(s.Stats.LastHeartbeatAt) >= interval
}
