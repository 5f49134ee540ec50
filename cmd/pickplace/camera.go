package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gwillem/pickplace/pkg/target"
)

type CameraCommand struct {
	Fx   float64 `long:"fx" required:"true" description:"Horizontal focal length in pixels"`
	Fy   float64 `long:"fy" required:"true" description:"Vertical focal length in pixels"`
	Cx   float64 `long:"cx" required:"true" description:"Principal point column"`
	Cy   float64 `long:"cy" required:"true" description:"Principal point row"`
	Dist string  `long:"dist" description:"Distortion coefficients k1,k2,p1,p2[,k3]"`
	Dir  string  `long:"dir" default:"." description:"Directory for camera_matrix.txt and dist_coeffs.txt"`
}

func (c *CameraCommand) Execute(args []string) error {
	if c.Fx == 0 || c.Fy == 0 {
		return errors.New("focal lengths must be non-zero")
	}
	dist, err := parseCoefficients(c.Dist)
	if err != nil {
		return fmt.Errorf("--dist: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	camPath := filepath.Join(c.Dir, "camera_matrix.txt")
	distPath := ""
	if len(dist) > 0 {
		distPath = filepath.Join(c.Dir, "dist_coeffs.txt")
	}
	if err := target.NewIntrinsics(c.Fx, c.Fy, c.Cx, c.Cy, dist).Save(camPath, distPath); err != nil {
		return err
	}

	cfg.Target.CameraMatrix = camPath
	cfg.Target.Distortion = distPath
	cfg.Target.Format = target.FormatUVZ
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println(successStyle.Render("Camera intrinsics saved"))
	fmt.Printf("Camera matrix: %s\n", camPath)
	if distPath != "" {
		fmt.Printf("Distortion:    %s\n", distPath)
	}
	fmt.Println(dimStyle.Render("Targets are now read as \"u v depth\" and back-projected with these intrinsics."))
	return nil
}

// parseCoefficients parses a comma separated list of 4 or 5 distortion
// coefficients. Empty input means no distortion.
func parseCoefficients(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return nil, fmt.Errorf("want 4 or 5 coefficients, got %d", len(parts))
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
