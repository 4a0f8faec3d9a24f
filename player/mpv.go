package player

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// MPV plays media in a dedicated mpv process per Play call.
type MPV struct {
	// Binary is the mpv executable.
	Binary string

	mu         sync.Mutex
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	events     net.Conn
}

func NewMPV() *MPV {
	return &MPV{Binary: "mpv"}
}

func newSocketPath() (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(where.Temp(), fmt.Sprintf("mpv-%x.sock", randomBytes)), nil
}

// mpvArgs leaves video output and decoding to the user's mpv.conf.
func mpvArgs(socket, target string, m Media) []string {
	title := sanitizeTitle(m.Title)

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + socket,
		"--force-media-title=" + title,
		"--title=" + title,
		"--force-window=yes",
		"--idle=yes",
	}

	if len(m.Headers) > 0 {
		args = append(args, "--http-header-fields="+headerFields(m.Headers))
	}

	if m.Start > 0 {
		args = append(args, "--start="+strconv.FormatFloat(m.Start, 'f', 0, 64))
	}

	for _, sub := range m.Subtitles {
		if sub.File != "" && !strings.HasPrefix(sub.File, "-") {
			args = append(args, "--sub-file="+sub.File)
		}
	}

	return append(args, target)
}

// Play launches mpv for m. A running instance is closed first.
func (m *MPV) Play(ctx context.Context, media Media) (<-chan Signal, error) {
	target, err := sanitizeMediaTarget(media.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}

	_ = m.Close()

	socket, err := newSocketPath()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(m.Binary, mpvArgs(socket, target, media)...)
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	m.mu.Lock()
	m.cmd, m.exited, m.socketPath = cmd, exited, socket
	m.mu.Unlock()

	conn, err := waitForSocket(ctx, socket, exited)
	if err != nil {
		select {
		case <-exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		return nil, fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.mu.Lock()
	m.events = conn
	m.mu.Unlock()

	signals := make(chan Signal, 16)
	go listen(conn, signals)
	go func() {
		<-exited
		_ = conn.Close()
	}()

	log.Infof("mpv started on %s", socket)
	return signals, nil
}

func waitForSocket(ctx context.Context, socket string, exited <-chan struct{}) (net.Conn, error) {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-exited:
			return nil, fmt.Errorf("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		if conn, err := net.Dial("unix", socket); err == nil {
			return conn, nil
		}
	}
	return nil, fmt.Errorf("socket %s not ready after %d attempts", socket, socketWaitRetries)
}

// Seek moves playback to an absolute position.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

// SetChapters replaces the chapter list shown on the timeline.
func (m *MPV) SetChapters(chapters []Chapter) error {
	_, err := m.sendCommand("set_property", "chapter-list", chapters)
	return err
}

// Position is the current playback position.
func (m *MPV) Position() (float64, error) {
	data, err := m.sendCommand("get_property", "time-pos")
	if err != nil {
		return 0, err
	}
	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("time-pos: expected number, got %T", data)
	}
	return val, nil
}

// Close quits mpv, killing it when it does not exit in time.
func (m *MPV) Close() error {
	m.mu.Lock()
	cmd, exited, socket, events := m.cmd, m.exited, m.socketPath, m.events
	m.mu.Unlock()

	if cmd == nil {
		return nil
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(cmd)
		<-exited
	}

	if events != nil {
		_ = events.Close()
	}
	_ = os.Remove(socket)

	m.mu.Lock()
	if m.cmd == cmd {
		m.cmd, m.exited, m.socketPath, m.events = nil, nil, "", nil
	}
	m.mu.Unlock()
	return nil
}

// sanitizeMediaTarget rejects targets mpv would read as flags. Stream URLs
// come from scripts, so they are not trusted.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
