package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes the page renderer. Tests swap it for a fake that writes JPEGs.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// stderrCap bounds how much renderer diagnostics are kept per call.
const stderrCap = 8 << 10

// execRunner shells out with os/exec. A canceled ctx kills the renderer; WaitDelay stops a
// child that keeps its pipes open from hanging the document.
type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 5 * time.Second
	var out bytes.Buffer
	errb := &cappedBuffer{max: stderrCap}
	cmd.Stdout = &out
	cmd.Stderr = errb

	err := cmd.Run()
	log := r.logger.With(
		"cmd", name,
		"args", strings.Join(args, " "),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		log.Error("ocr.exec.failed", "error", err, "stderr", errb.String())
		return out.Bytes(), errb.Bytes(), err
	}
	log.Debug("ocr.exec.ok", "stdout_bytes", out.Len(), "stderr_bytes", errb.Len())
	return out.Bytes(), errb.Bytes(), nil
}

// cappedBuffer keeps the first max bytes written and silently drops the rest.
type cappedBuffer struct {
	bytes.Buffer
	max       int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.Buffer.String() + "...(truncated)"
	}
	return b.Buffer.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
