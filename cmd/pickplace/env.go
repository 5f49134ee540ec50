package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gwillem/pickplace/internal/config"
	"github.com/gwillem/pickplace/internal/log"
	"github.com/gwillem/pickplace/pkg/cycle"
	"github.com/gwillem/pickplace/pkg/ik"
	"github.com/gwillem/pickplace/pkg/motion"
	"github.com/gwillem/pickplace/pkg/robot"
	"github.com/gwillem/pickplace/pkg/target"
	"github.com/gwillem/pickplace/pkg/voice"
)

// openTimeout bounds reading servo positions while opening the arm.
const openTimeout = 5 * time.Second

// env is everything a command needs to move the arm.
type env struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	arm    *robot.Arm
	seq    *motion.Sequencer
	choreo *motion.Choreographer
	solver *ik.Solver

	closers []io.Closer
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.Config, err)
	}
	return cfg, nil
}

func newLogger(quiet bool) (*zap.SugaredLogger, error) {
	if opts.LogFile != "" {
		return log.New(opts.LogLevel, opts.LogFile)
	}
	if quiet {
		return zap.NewNop().Sugar(), nil
	}
	return log.New(opts.LogLevel)
}

// newEnv loads the config and opens the arm. With quiet set, logs go only
// to --log-file so a TUI can own the terminal.
func newEnv(quiet bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(quiet)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	armCfg := cfg.Arm
	if opts.DryRun {
		armCfg.Backend = robot.BackendSim
	}
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	arm, err := robot.Open(ctx, armCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s arm: %w", armCfg.Backend, err)
	}
	logger.Infow("arm ready", "backend", armCfg.Backend, "config", opts.Config)

	seq := motion.NewSequencer(arm, motion.NewWaiter(), cfg.Motion.Timing(), logger)
	return &env{
		cfg:     cfg,
		logger:  logger,
		arm:     arm,
		seq:     seq,
		choreo:  motion.NewChoreographer(seq, logger),
		solver:  ik.NewSolver(cfg.Geometry, cfg.Limits),
		closers: []io.Closer{arm},
	}, nil
}

func (e *env) addCloser(c io.Closer) {
	if c != nil {
		e.closers = append(e.closers, c)
	}
}

func (e *env) Close() error {
	var err error
	for i := len(e.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, e.closers[i].Close())
	}
	_ = e.logger.Sync()
	return err
}

// provider builds the configured target provider. A non-empty at overrides
// it with a fixed point.
func (e *env) provider(at string) (target.Provider, error) {
	tc := e.cfg.Target
	if at != "" {
		p, err := target.ParseVector(at)
		if err != nil {
			return nil, fmt.Errorf("--at: %w", err)
		}
		return target.Fixed(p), nil
	}

	var r io.Reader
	switch tc.Provider {
	case config.ProviderFixed:
		return target.Fixed(tc.Fixed), nil
	case config.ProviderFile:
		f, err := os.Open(tc.Path)
		if err != nil {
			return nil, err
		}
		e.addCloser(f)
		r = f
	case config.ProviderStdin, "":
		r = os.Stdin
	default:
		return nil, fmt.Errorf("unknown target provider %q", tc.Provider)
	}

	streamOpts := []target.StreamOption{
		target.WithLogger(e.logger),
		target.WithCameraOffset(tc.CameraOffset),
	}
	if tc.Scale != 0 {
		streamOpts = append(streamOpts, target.WithScale(tc.Scale))
	}
	if tc.Format == target.FormatUVZ {
		intr, err := target.LoadIntrinsics(tc.CameraMatrix, tc.Distortion)
		if err != nil {
			return nil, err
		}
		streamOpts = append(streamOpts, target.WithIntrinsics(intr))
	}
	return target.NewStreamProvider(r, streamOpts...), nil
}

func (e *env) runner(at string) (*cycle.Runner, error) {
	p, err := e.provider(at)
	if err != nil {
		return nil, err
	}
	return cycle.NewRunner(p, e.cfg.Frame, e.solver, e.choreo, e.logger), nil
}

func (e *env) listener(ctx context.Context) (voice.Listener, error) {
	vc := e.cfg.Voice
	switch vc.Listener {
	case config.ListenerWebSocket:
		l, err := voice.DialWebSocket(ctx, vc.URL)
		if err != nil {
			return nil, err
		}
		e.addCloser(l)
		return l, nil
	case config.ListenerStdin, "":
		return voice.NewLineListener(os.Stdin), nil
	default:
		return nil, fmt.Errorf("unknown voice listener %q", vc.Listener)
	}
}

func (e *env) speaker() voice.Speaker {
	if len(e.cfg.Voice.Speaker) == 0 {
		return voice.LogSpeaker{Logger: e.logger}
	}
	return voice.CommandSpeaker{Name: e.cfg.Voice.Speaker[0], Args: e.cfg.Voice.Speaker[1:]}
}

// signalContext is cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func formatPoint(p r3.Vector) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
}
