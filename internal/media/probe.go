package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFProbe reads container duration with the ffprobe binary.
type FFProbe struct {
	Path string
}

func (f FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	bin := f.Path
	if bin == "" {
		bin = "ffprobe"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseDuration(stdout.String())
}

// ParseDuration parses ffprobe's duration output in seconds.
func ParseDuration(out string) (float64, error) {
	out = strings.TrimSpace(out)
	if out == "" || out == "N/A" {
		return 0, fmt.Errorf("no duration reported")
	}
	d, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", out, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", out)
	}
	return d, nil
}
