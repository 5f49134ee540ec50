package robot

import (
	"context"
	"sync"
)

// Command is one angle written to a servo channel.
type Command struct {
	Joint   Joint
	Degrees float64
}

// Recorder is an Actuator that keeps every command in memory. It backs
// dry runs and tests.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	closed   bool

	// Fail, if set, is returned by SetAngle for matching joints.
	Fail func(j Joint, deg float64) error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetAngle records the command.
func (r *Recorder) SetAngle(ctx context.Context, j Joint, deg float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Fail != nil {
		if err := r.Fail(j, deg); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.commands = append(r.commands, Command{Joint: j, Degrees: deg})
	r.mu.Unlock()
	return nil
}

// Commands returns a copy of all recorded commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Reset forgets recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.commands = nil
	r.mu.Unlock()
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}
