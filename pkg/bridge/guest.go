package bridge

import (
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"genesisbridge/pkg/logger"
)

// Guest owns the hosted process: its stdin is the bridge's only write path,
// its stdout the only read path.
type Guest struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func StartGuest(command string, args []string) (*Guest, error) {
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("guest stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("guest stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start guest %s: %w", command, err)
	}
	logger.InfoCF("guest", "Guest process started", map[string]interface{}{
		"command": command,
		"pid":     cmd.Process.Pid,
	})
	return &Guest{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (g *Guest) Stdin() io.Writer  { return g.stdin }
func (g *Guest) Stdout() io.Reader { return g.stdout }

// Wait blocks until the guest exits.
func (g *Guest) Wait() error {
	return g.cmd.Wait()
}

// Terminate asks the guest to exit and kills it if it lingers. Callers still
// need Wait (or the Run loop) to reap the process.
func (g *Guest) Terminate() {
	if g.cmd.Process == nil {
		return
	}
	logger.InfoC("guest", "Terminating guest process...")
	g.stdin.Close()
	if err := g.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return
	}
	go func() {
		time.Sleep(5 * time.Second)
		g.cmd.Process.Kill()
	}()
}
