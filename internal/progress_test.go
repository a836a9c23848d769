package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn: func() error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn: func() error {
				return errors.New("test error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgress_RunsFunctionOnce(t *testing.T) {
	calls := 0
	err := ShowProgress(context.Background(), "counting", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("ShowProgress() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestFprintHelpers_PlainOnBuffers(t *testing.T) {
	var buf bytes.Buffer

	FprintSuccess(&buf, "done")
	FprintInfo(&buf, "note")
	FprintError(&buf, "broke")
	FprintWarning(&buf, "careful")

	want := "done\nnote\nbroke\nWARNING: careful\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("non-terminal output should not contain ANSI escapes")
	}
}
