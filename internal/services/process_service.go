package services

import (
	"context"
	"fmt"
	"os/exec"

	"hostkit/internal/logger"
)

// ProcessService starts external executables.
type ProcessService struct{}

// NewProcessService creates the process launcher.
func NewProcessService() *ProcessService {
	return &ProcessService{}
}

// Name returns the service name "process" for registration.
func (p *ProcessService) Name() string {
	return "process"
}

// Initialize is a no-op.
func (p *ProcessService) Initialize() error {
	return nil
}

// Start runs path with args. A blocking start waits for the process and
// fails if it exits non-zero; otherwise the process is reaped in the background.
func (p *ProcessService) Start(ctx context.Context, path string, args []string, blocking bool) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("executable path is required")
	}

	var cmd *exec.Cmd
	if blocking {
		cmd = exec.CommandContext(ctx, path, args...)
	} else {
		cmd = exec.Command(path, args...)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", path, err)
	}
	pid := cmd.Process.Pid
	logger.Debug("Process started", "path", path, "pid", pid, "blocking", blocking)

	if !blocking {
		go func() {
			if err := cmd.Wait(); err != nil {
				logger.Debug("Background process exited", "path", path, "pid", pid, "error", err)
			}
		}()
		return pid, nil
	}

	if err := cmd.Wait(); err != nil {
		return pid, fmt.Errorf("process %s failed: %w", path, err)
	}
	return pid, nil
}
