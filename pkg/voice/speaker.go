package voice

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// LogSpeaker writes phrases to the log instead of a speaker.
type LogSpeaker struct {
	Logger *zap.SugaredLogger
}

// Say logs text.
func (s LogSpeaker) Say(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Infow("say", "text", text)
	}
	return nil
}

// CommandSpeaker runs an external synthesizer, e.g. "espeak", with the
// phrase as its last argument.
type CommandSpeaker struct {
	Name string
	Args []string
}

// Say runs the command and waits for it to finish.
func (s CommandSpeaker) Say(ctx context.Context, text string) error {
	args := append(append([]string(nil), s.Args...), text)
	out, err := exec.CommandContext(ctx, s.Name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", s.Name, err, out)
	}
	return nil
}
