// Package nuclei runs the external template scanner as a subprocess.
package nuclei

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const DefaultBinary = "nuclei"

// Runner satisfies ports.Scanner.
type Runner struct {
	Binary string
}

func New(binary string) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Runner{Binary: binary}
}

// Args builds the scanner command line.
func Args(target string, templates []string, outputPath string) []string {
	args := []string{"-target", target, "-json", "-o", outputPath, "-silent"}
	for _, t := range templates {
		args = append(args, "-t", t)
	}
	return args
}

// Scan runs the scanner until it exits or ctx expires. The process is killed
// on expiry and the returned error wraps ctx.Err().
func (r *Runner) Scan(ctx context.Context, target string, templates []string, outputPath string) error {
	cmd := exec.CommandContext(ctx, r.Binary, Args(target, templates, outputPath)...)
	cmd.WaitDelay = 5 * time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("scanner %s on %s: %w", r.Binary, target, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("scanner %s exited with code %d: %s", r.Binary, exitErr.ExitCode(), tail(out.String(), 512))
		}
		return fmt.Errorf("error running scanner %s: %w", r.Binary, err)
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
