package classifier

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"ghlicense/logger"
)

// resultLine matches "<anything>) <label>, <label>, ..." and captures the labels.
var resultLine = regexp.MustCompile(`^[^)]*\)\s*(.*)$`)

// Nomos runs the FOSSology nomos scanner on one file at a time.
type Nomos struct {
	path    string
	timeout time.Duration
}

// NewNomos creates an adapter for the executable at path. A zero timeout
// means no limit beyond the caller's context.
func NewNomos(path string, timeout time.Duration) *Nomos {
	return &Nomos{path: path, timeout: timeout}
}

// Classify returns the raw labels nomos reports for file. No output, or
// output without a result line, yields an empty slice and no error. The
// exit status is ignored.
func (n *Nomos) Classify(ctx context.Context, file string) ([]string, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	pr, pw := io.Pipe()
	cmd := exec.CommandContext(ctx, n.path, file)
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, fmt.Errorf("%w: start %s: %v", ErrClassifier, n.path, err)
	}

	// Closing the writer once the process exits ends the scan below.
	go func() {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()

	labels := ParseOutput(pr)
	pr.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrClassifier, n.path, file, err)
	}

	logger.Debug("Classified file", zap.String("file", file), zap.Strings("labels", labels))
	return labels, nil
}

// ParseOutput returns the labels of the first result line in r. Remaining
// output is drained so the producer is never blocked.
func ParseOutput(r io.Reader) []string {
	labels := []string{}
	found := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if found {
			continue
		}
		m := resultLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		found = true
		for _, label := range strings.Split(m[1], ",") {
			if label = strings.TrimSpace(label); label != "" {
				labels = append(labels, label)
			}
		}
	}
	if scanner.Err() != nil {
		// A line over the buffer limit stops the scanner; drain the rest.
		_, _ = io.Copy(io.Discard, r)
	}
	return labels
}
