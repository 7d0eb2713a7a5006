package export

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes the external export toolchain and returns its combined
// output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	// Dir is the working directory; empty means the current one.
	Dir string
}

// Run starts name with args and waits for it. The process is killed when
// ctx is done.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}
