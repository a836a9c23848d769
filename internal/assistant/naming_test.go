package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubCompleter struct {
	reply string
	err   error
	got   Request
}

func (s *stubCompleter) Complete(ctx context.Context, req Request) (string, error) {
	s.got = req
	return s.reply, s.err
}

func TestGenerateChatName(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "title", reply: "Delta Lake Basics\n", want: "Delta Lake Basics 14-Oct-2026 @ 03:04 PM"},
		{name: "quoted", reply: `"Cluster Sizing"`, want: "Cluster Sizing 14-Oct-2026 @ 03:04 PM"},
		{name: "empty", reply: "  ", want: "Chat 14-Oct-2026 @ 03:04 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &stubCompleter{reply: tt.reply}
			got, err := GenerateChatName(context.Background(), c, "gpt-3.5-turbo", "what is delta?", now)
			if err != nil {
				t.Fatalf("GenerateChatName() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GenerateChatName() = %q, want %q", got, tt.want)
			}
			if !strings.Contains(c.got.Input, "'what is delta?'") {
				t.Errorf("prompt = %q", c.got.Input)
			}
		})
	}
}

func TestGenerateChatName_Error(t *testing.T) {
	c := &stubCompleter{err: errors.New("down")}
	if _, err := GenerateChatName(context.Background(), c, "m", "hi", time.Now()); err == nil {
		t.Error("GenerateChatName() error = nil")
	}
}
