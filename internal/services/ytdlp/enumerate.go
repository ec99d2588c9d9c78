package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
)

// Enumeration is a lazy, forward-only sequence of item descriptors. Next
// returns io.EOF when the sequence ends. The sequence is restartable only
// from the beginning; resuming mid-history is the discovery stage's job.
type Enumeration interface {
	Next() (*Descriptor, error)
	Close() error
}

// Enumerate starts listing a collection newest-first. Descriptors stream
// from a flat-playlist dump, one JSON object per line, so arbitrarily
// long collections never load into memory at once.
func (c *Client) Enumerate(ctx context.Context, col Collection) (Enumeration, error) {
	args := []string{
		"--flat-playlist",
		"--dump-json",
		"--no-warnings",
		col.URL(),
	}

	cmd := exec.CommandContext(ctx, c.bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open enumeration pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start enumeration: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	// Descriptor lines can be large; raise the scanner limit well above
	// the default 64KB.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	return &processEnumeration{cmd: cmd, scanner: scanner}, nil
}

type processEnumeration struct {
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	done    bool
}

func (e *processEnumeration) Next() (*Descriptor, error) {
	for e.scanner.Scan() {
		line := e.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var probe struct {
			VideoID string `json:"videoId"`
			ID      string `json:"id"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			continue // non-descriptor noise on stdout
		}
		id := probe.VideoID
		if id == "" {
			id = probe.ID
		}
		if id == "" {
			continue
		}

		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		return &Descriptor{VideoID: id, Raw: raw}, nil
	}

	if err := e.scanner.Err(); err != nil {
		return nil, fmt.Errorf("enumeration read failed: %w", err)
	}
	e.done = true
	if err := e.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("enumeration process failed: %w", err)
	}
	return nil, io.EOF
}

func (e *processEnumeration) Close() error {
	if e.done {
		return nil
	}
	if e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	_ = e.cmd.Wait()
	return nil
}
