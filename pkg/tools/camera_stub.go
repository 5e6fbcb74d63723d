//go:build !linux

package tools

import (
	"context"
	"fmt"
)

func captureFrame(ctx context.Context, device string) ([]byte, error) {
	return nil, fmt.Errorf("camera capture is only available on Linux")
}
