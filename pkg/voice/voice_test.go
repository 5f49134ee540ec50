package voice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsActivation(t *testing.T) {
	tests := []struct {
		phrase, trigger string
		want            bool
	}{
		{"activate now", "", true},
		{"Activate Now", "activate now", true},
		{"  activate   now ", "activate now", true},
		{"activate", "activate now", false},
		{"activate now please", "activate now", false},
		{"", "activate now", false},
		{"go", "go", true},
	}
	for _, tt := range tests {
		if got := IsActivation(tt.phrase, tt.trigger); got != tt.want {
			t.Errorf("IsActivation(%q, %q) = %v, want %v", tt.phrase, tt.trigger, got, tt.want)
		}
	}
}

func TestLineListener(t *testing.T) {
	l := NewLineListener(strings.NewReader("hello\n  activate now \n"))
	ctx := context.Background()
	for _, want := range []string{"hello", "activate now"} {
		got, err := l.Listen(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Listen() = %q, want %q", got, want)
		}
	}
	if _, err := l.Listen(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestLineListenerCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	l := NewLineListener(r)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Listen(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWebSocketListener(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"text":" activate now "}`))
		conn.WriteMessage(websocket.TextMessage, []byte("could not understand"))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l, err := DialWebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	for _, want := range []string{"activate now", "could not understand"} {
		got, err := l.Listen(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Listen() = %q, want %q", got, want)
		}
	}
	if _, err := l.Listen(ctx); err == nil {
		t.Error("expected error after server closed")
	}
}

func TestDialWebSocketFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if _, err := DialWebSocket(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")); err == nil {
		t.Error("expected dial error")
	}
}

func TestLogSpeaker(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := LogSpeaker{Logger: zap.New(core).Sugar()}
	if err := s.Say(context.Background(), Ready); err != nil {
		t.Fatal(err)
	}
	entries := logs.FilterField(zap.String("text", Ready)).All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
}

func TestCommandSpeakerMissingBinary(t *testing.T) {
	s := CommandSpeaker{Name: "/nonexistent/speaker"}
	if err := s.Say(context.Background(), "hi"); err == nil {
		t.Error("expected error for missing binary")
	}
}
