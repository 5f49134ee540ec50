// Package target supplies arm-relative target points: providers that read
// points from an external vision process, the frame correction applied
// before solving, and the camera calibration files the vision side uses.
//
// Axes: +Z forward from the arm, +X to the right, +Y up.
package target

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"
)

// MetersToInches converts vision output in metres to the solver's inches.
const MetersToInches = 39.3701

// Provider returns one target point per call, blocking until one is
// available.
type Provider interface {
	Target(ctx context.Context) (r3.Vector, error)
}

// Fixed always returns the same point.
type Fixed r3.Vector

// Target returns the fixed point.
func (f Fixed) Target(ctx context.Context) (r3.Vector, error) {
	if err := ctx.Err(); err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector(f), nil
}

// Format selects how a stream line is interpreted.
type Format string

// Stream formats.
const (
	// FormatXYZ lines hold a metric point "x y z".
	FormatXYZ Format = "xyz"
	// FormatUVZ lines hold a pixel and depth "u v z", back-projected
	// through the camera intrinsics.
	FormatUVZ Format = "uvz"
)

// StreamProvider reads targets from a line-oriented stream, one point per
// line, fields separated by whitespace or commas. Lines that do not parse
// are skipped, so a vision process can interleave status output with
// detections. Blank lines and lines starting with '#' are ignored.
type StreamProvider struct {
	lines  chan string
	err    error
	format Format
	scale  float64
	offset r3.Vector
	intr   *Intrinsics
	logger *zap.SugaredLogger
}

// StreamOption configures a StreamProvider.
type StreamOption func(*StreamProvider)

// WithScale multiplies every point by scale, e.g. MetersToInches.
func WithScale(scale float64) StreamOption {
	return func(p *StreamProvider) { p.scale = scale }
}

// WithCameraOffset adds a fixed offset after scaling, moving points from the
// camera frame into the arm frame.
func WithCameraOffset(offset r3.Vector) StreamOption {
	return func(p *StreamProvider) { p.offset = offset }
}

// WithIntrinsics switches the stream to pixel+depth lines.
func WithIntrinsics(intr *Intrinsics) StreamOption {
	return func(p *StreamProvider) {
		p.intr = intr
		p.format = FormatUVZ
	}
}

// WithLogger sets the logger used for skipped lines.
func WithLogger(logger *zap.SugaredLogger) StreamOption {
	return func(p *StreamProvider) { p.logger = logger }
}

// NewStreamProvider starts reading r in the background. Reading stops at
// EOF or on a read error, which Target then returns.
func NewStreamProvider(r io.Reader, opts ...StreamOption) *StreamProvider {
	p := &StreamProvider{
		lines:  make(chan string),
		format: FormatXYZ,
		scale:  1,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.read(r)
	return p
}

func (p *StreamProvider) read(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.lines <- sc.Text()
	}
	p.err = sc.Err()
	if p.err == nil {
		p.err = io.EOF
	}
	close(p.lines)
}

// Target blocks until a parseable line arrives.
func (p *StreamProvider) Target(ctx context.Context) (r3.Vector, error) {
	for {
		select {
		case <-ctx.Done():
			return r3.Vector{}, ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return r3.Vector{}, p.err
			}
			pt, err := p.parse(line)
			if errors.Is(err, errSkip) {
				continue
			}
			if err != nil {
				p.logger.Debugw("skipping target line", "line", line, "error", err)
				continue
			}
			return pt, nil
		}
	}
}

var errSkip = errors.New("skip")

func (p *StreamProvider) parse(line string) (r3.Vector, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return r3.Vector{}, errSkip
	}
	v, err := ParseVector(line)
	if err != nil {
		return r3.Vector{}, err
	}
	if p.format == FormatUVZ {
		if p.intr == nil {
			return r3.Vector{}, errors.New("pixel input without intrinsics")
		}
		v, err = p.intr.BackProject(v.X, v.Y, v.Z)
		if err != nil {
			return r3.Vector{}, err
		}
	}
	return v.Mul(p.scale).Add(p.offset), nil
}

// ParseVector parses three numbers separated by whitespace or commas.
func ParseVector(s string) (r3.Vector, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 3 {
		return r3.Vector{}, fmt.Errorf("want 3 fields, got %d", len(fields))
	}
	var xyz [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vector{}, fmt.Errorf("field %d: %w", i, err)
		}
		xyz[i] = v
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
