package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"

	"github.com/nezuko-cli/nezuko/log"
)

// observed are the properties mpv reports on change.
var observed = []string{"time-pos", "duration"}

type mpvEvent struct {
	Event     string `json:"event"`
	Name      string `json:"name"`
	Data      any    `json:"data"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

// parseEvent maps one IPC line to a signal. Replies and uninteresting
// events report false.
func parseEvent(line []byte) (Signal, bool) {
	var ev mpvEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return Signal{}, false
	}

	switch ev.Event {
	case "property-change":
		seconds, ok := ev.Data.(float64)
		if !ok {
			return Signal{}, false
		}
		switch ev.Name {
		case "time-pos":
			return Signal{Kind: TimeUpdate, Seconds: seconds}, true
		case "duration":
			return Signal{Kind: Duration, Seconds: seconds}, true
		}
	case "end-file":
		switch ev.Reason {
		case "eof":
			return Signal{Kind: Ended}, true
		case "error":
			msg := ev.FileError
			if msg == "" {
				msg = "playback error"
			}
			return Signal{Kind: Error, Err: errors.New(msg)}, true
		}
	}

	return Signal{}, false
}

// listen subscribes to the observed properties on rw and forwards signals
// until the file ends, fails or the connection closes. mpv runs idle, so the
// connection outlives the file. Exited is sent last, then out is closed.
func listen(rw io.ReadWriter, out chan<- Signal) {
	defer close(out)
	defer func() { out <- Signal{Kind: Exited} }()

	for i, name := range observed {
		payload, _ := json.Marshal(ipcCommand{Command: []any{"observe_property", i + 1, name}})
		if _, err := rw.Write(append(payload, '\n')); err != nil {
			log.Warnf("mpv observe %s: %v", name, err)
			return
		}
	}

	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		sig, ok := parseEvent(scanner.Bytes())
		if !ok {
			continue
		}
		out <- sig
		if sig.Kind.terminal() {
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		log.Debugf("mpv event stream closed: %v", err)
	}
}
