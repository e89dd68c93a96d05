package uploads

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"interview-backend/internal/shared/telemetry"
)

const probeTimeout = 15 * time.Second

// Probe checks uploads for an actual video stream using an external ffprobe
// binary. The check is best-effort: a missing or failing probe never blocks
// an upload, only a conclusive "no video stream" verdict does.
type Probe struct {
	Path string
}

// NewProbe constructs a Probe for the given ffprobe path or name.
func NewProbe(path string) *Probe {
	if strings.TrimSpace(path) == "" {
		path = "ffprobe"
	}
	return &Probe{Path: path}
}

// Check returns ErrNoVideoStream only when the probe ran successfully and
// found no video stream. Any other condition is treated as inconclusive.
func (p *Probe) Check(ctx context.Context, filePath string) error {
	bin, err := exec.LookPath(p.Path)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-select_streams", "v",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		filePath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		telemetry.Warn("uploads.probe_failed", map[string]any{
			"path": filePath,
			"err":  err.Error(),
		})
		return nil
	}

	if strings.TrimSpace(out.String()) == "" {
		return ErrNoVideoStream
	}
	return nil
}
