package target

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Intrinsics are the pinhole camera parameters produced by offline
// calibration: a 3x3 camera matrix and radial-tangential distortion
// coefficients (k1, k2, p1, p2[, k3]).
type Intrinsics struct {
	Camera     *mat.Dense
	Distortion []float64
}

// NewIntrinsics builds intrinsics from focal lengths, principal point and
// distortion coefficients.
func NewIntrinsics(fx, fy, cx, cy float64, distortion []float64) *Intrinsics {
	return &Intrinsics{
		Camera: mat.NewDense(3, 3, []float64{
			fx, 0, cx,
			0, fy, cy,
			0, 0, 1,
		}),
		Distortion: distortion,
	}
}

// Save writes the camera matrix and, when present, the distortion
// coefficients in the format LoadIntrinsics reads.
func (in *Intrinsics) Save(cameraPath, distortionPath string) error {
	if err := SaveMatrix(cameraPath, in.Camera); err != nil {
		return fmt.Errorf("camera matrix: %w", err)
	}
	if len(in.Distortion) == 0 || distortionPath == "" {
		return nil
	}
	d := mat.NewDense(1, len(in.Distortion), in.Distortion)
	if err := SaveMatrix(distortionPath, d); err != nil {
		return fmt.Errorf("distortion coefficients: %w", err)
	}
	return nil
}

// LoadIntrinsics reads the camera matrix and distortion files.
func LoadIntrinsics(cameraPath, distortionPath string) (*Intrinsics, error) {
	k, err := LoadMatrix(cameraPath)
	if err != nil {
		return nil, fmt.Errorf("camera matrix: %w", err)
	}
	if r, c := k.Dims(); r != 3 || c != 3 {
		return nil, fmt.Errorf("camera matrix is %dx%d, want 3x3", r, c)
	}
	intr := &Intrinsics{Camera: k}
	if distortionPath != "" {
		d, err := LoadMatrix(distortionPath)
		if err != nil {
			return nil, fmt.Errorf("distortion coefficients: %w", err)
		}
		intr.Distortion = flatten(d)
	}
	if intr.Fx() == 0 || intr.Fy() == 0 {
		return nil, errors.New("camera matrix has zero focal length")
	}
	return intr, nil
}

func flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

// Fx returns the horizontal focal length in pixels.
func (in *Intrinsics) Fx() float64 { return in.Camera.At(0, 0) }

// Fy returns the vertical focal length in pixels.
func (in *Intrinsics) Fy() float64 { return in.Camera.At(1, 1) }

// Cx returns the principal point column.
func (in *Intrinsics) Cx() float64 { return in.Camera.At(0, 2) }

// Cy returns the principal point row.
func (in *Intrinsics) Cy() float64 { return in.Camera.At(1, 2) }

func (in *Intrinsics) coeff(i int) float64 {
	if i < len(in.Distortion) {
		return in.Distortion[i]
	}
	return 0
}

// distort applies the radial-tangential model to normalised coordinates.
func (in *Intrinsics) distort(x, y float64) (float64, float64) {
	k1, k2, p1, p2, k3 := in.coeff(0), in.coeff(1), in.coeff(2), in.coeff(3), in.coeff(4)
	r2 := x*x + y*y
	radial := 1 + k1*r2 + k2*r2*r2 + k3*r2*r2*r2
	xd := x*radial + 2*p1*x*y + p2*(r2+2*x*x)
	yd := y*radial + p1*(r2+2*y*y) + 2*p2*x*y
	return xd, yd
}

// Project maps a camera-frame point to pixel coordinates.
func (in *Intrinsics) Project(p r3.Vector) (u, v float64, err error) {
	if p.Z <= 0 {
		return 0, 0, errors.New("point behind camera")
	}
	x, y := in.distort(p.X/p.Z, p.Y/p.Z)
	return in.Fx()*x + in.Cx(), in.Fy()*y + in.Cy(), nil
}

// BackProject maps a pixel and its depth to a camera-frame point, removing
// lens distortion by fixed-point iteration.
func (in *Intrinsics) BackProject(u, v, depth float64) (r3.Vector, error) {
	if depth <= 0 {
		return r3.Vector{}, errors.New("depth must be positive")
	}
	xd := (u - in.Cx()) / in.Fx()
	yd := (v - in.Cy()) / in.Fy()

	x, y := xd, yd
	for i := 0; i < 20; i++ {
		dx, dy := in.distort(x, y)
		ex, ey := dx-xd, dy-yd
		x -= ex
		y -= ey
		if math.Abs(ex) < 1e-12 && math.Abs(ey) < 1e-12 {
			break
		}
	}
	return r3.Vector{X: x * depth, Y: y * depth, Z: depth}, nil
}

// LoadMatrix reads a whitespace-delimited, row-major numeric matrix.
func LoadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMatrix(f)
}

// ReadMatrix parses one matrix row per line. Blank lines and '#' comments
// are skipped.
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	var (
		data []float64
		cols int
		rows int
	)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if cols == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("line %d: %d values, want %d", line, len(fields), cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errors.New("empty matrix")
	}
	return mat.NewDense(rows, cols, data), nil
}

// WriteMatrix writes m one row per line in the format ReadMatrix reads.
func WriteMatrix(w io.Writer, m mat.Matrix) error {
	bw := bufio.NewWriter(w)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(m.At(i, j), 'e', 18, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// SaveMatrix writes m to path.
func SaveMatrix(path string, m mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteMatrix(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
