package player

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/nezuko-cli/nezuko/constant"
)

// IINA opens media in the macOS IINA app. IINA exposes no IPC socket, so
// the only signal is Exited when the app closes.
type IINA struct {
	cmd *exec.Cmd
}

func NewIINA() *IINA {
	return &IINA{}
}

func iinaArgs(target string, m Media) []string {
	args := []string{"-W", "-n", "-a", "IINA", "--args", target,
		"--mpv-force-media-title=" + sanitizeTitle(m.Title),
	}

	if len(m.Headers) > 0 {
		args = append(args, "--mpv-http-header-fields="+headerFields(m.Headers))
	}

	if m.Start > 0 {
		args = append(args, "--mpv-start="+strconv.FormatFloat(m.Start, 'f', 0, 64))
	}

	return args
}

func (p *IINA) Play(_ context.Context, m Media) (<-chan Signal, error) {
	if runtime.GOOS != constant.Darwin {
		return nil, fmt.Errorf("IINA is only supported on macOS")
	}

	target, err := sanitizeMediaTarget(m.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}

	_ = p.Close()

	p.cmd = exec.Command("open", iinaArgs(target, m)...)
	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("open IINA: %w", err)
	}

	signals := make(chan Signal, 1)
	cmd := p.cmd
	go func() {
		_ = cmd.Wait()
		signals <- Signal{Kind: Exited}
		close(signals)
	}()

	return signals, nil
}

func (p *IINA) Seek(float64) error          { return nil }
func (p *IINA) SetChapters([]Chapter) error { return nil }

func (p *IINA) Close() error {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
	return nil
}
