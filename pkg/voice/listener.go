package voice

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// LineListener reads one phrase per line, e.g. from stdin or a pipe fed by
// an external recognizer.
type LineListener struct {
	lines chan string
	err   error
}

// NewLineListener starts reading r in the background.
func NewLineListener(r io.Reader) *LineListener {
	l := &LineListener{lines: make(chan string)}
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			l.lines <- strings.TrimSpace(sc.Text())
		}
		l.err = sc.Err()
		if l.err == nil {
			l.err = io.EOF
		}
		close(l.lines)
	}()
	return l
}

// Listen returns the next line.
func (l *LineListener) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-l.lines:
		if !ok {
			return "", l.err
		}
		return line, nil
	}
}

// WebSocketListener receives recognized phrases from a speech service over
// a websocket. Messages are either plain text or JSON {"text": "..."}.
type WebSocketListener struct {
	conn     *websocket.Conn
	messages chan string
	done     chan struct{}
	err      error
	once     sync.Once
}

// DialWebSocket connects to a speech service at url.
func DialWebSocket(ctx context.Context, url string) (*WebSocketListener, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to speech service: %w", err)
	}
	l := &WebSocketListener{
		conn:     conn,
		messages: make(chan string),
		done:     make(chan struct{}),
	}
	go l.readLoop()
	return l, nil
}

type phraseMessage struct {
	Text string `json:"text"`
}

func (l *WebSocketListener) readLoop() {
	defer close(l.messages)
	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			l.err = err
			return
		}
		select {
		case l.messages <- decodePhrase(data):
		case <-l.done:
			l.err = io.EOF
			return
		}
	}
}

func decodePhrase(data []byte) string {
	var msg phraseMessage
	if json.Unmarshal(data, &msg) == nil {
		return strings.TrimSpace(msg.Text)
	}
	return strings.TrimSpace(string(data))
}

// Listen returns the next phrase from the service.
func (l *WebSocketListener) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case text, ok := <-l.messages:
		if !ok {
			return "", fmt.Errorf("speech service: %w", l.err)
		}
		return text, nil
	}
}

// Close sends a close frame and drops the connection.
func (l *WebSocketListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		_ = l.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = l.conn.Close()
	})
	return err
}
