//go:build linux

package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// captureFrame grabs one JPEG frame from the video device. fswebcam is tried
// first, then ffmpeg.
func captureFrame(ctx context.Context, device string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out := filepath.Join(os.TempDir(), fmt.Sprintf("genesisbridge_cam_%d.jpg", time.Now().UnixNano()))
	defer os.Remove(out)

	if _, err := exec.LookPath("fswebcam"); err == nil {
		cmd := exec.CommandContext(ctx, "fswebcam", "-d", device, "--no-banner", "-r", "1280x720", out)
		if err := cmd.Run(); err == nil {
			return os.ReadFile(out)
		}
	}

	if _, err := exec.LookPath("ffmpeg"); err == nil {
		cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-f", "video4linux2", "-i", device, "-frames:v", "1", out)
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("ffmpeg capture: %w", err)
		}
		return os.ReadFile(out)
	}

	return nil, fmt.Errorf("no capture backend available (need fswebcam or ffmpeg)")
}
