package runtime

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultExecTimeout = 30 * time.Second

// executor runs approved code blocks in the configured working directory.
type executor struct {
	workdir string
	timeout time.Duration
}

func newExecutor(workdir string, timeout time.Duration) *executor {
	if timeout <= 0 {
		timeout = defaultExecTimeout
	}
	return &executor{workdir: workdir, timeout: timeout}
}

// run executes code and returns its combined output. Execution failures are
// part of the output (the model needs to see them), not an error; an error is
// returned only when the language cannot be executed at all.
func (e *executor) run(ctx context.Context, code, language string) (string, error) {
	var name string
	switch strings.ToLower(language) {
	case "python", "py", "python3":
		name = "python3"
	case "sh", "shell", "bash":
		name = "sh"
	case "javascript", "js", "node":
		name = "node"
	default:
		return "", fmt.Errorf("unsupported execution language: %q", language)
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, name)
	cmd.Stdin = strings.NewReader(code)
	if e.workdir != "" {
		cmd.Dir = e.workdir
	}

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			output += fmt.Sprintf("\n[execution timed out after %s]", e.timeout)
		} else {
			output += fmt.Sprintf("\n[exited with error: %v]", err)
		}
	}
	return output, nil
}
