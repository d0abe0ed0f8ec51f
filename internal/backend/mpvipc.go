package backend

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// mpv JSON-IPC plumbing: one-shot request/response commands over the unix
// socket, plus a persistent connection for property-change notifications.

type mpvRequest struct {
	Command []any `json:"command"`
}

type mpvResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error"`
}

const (
	mpvIPCRetries      = 3
	mpvIPCRetryDelay   = 100 * time.Millisecond
	mpvIPCReadDeadline = time.Second
	mpvIPCReadBufSize  = 64 * 1024
)

// mpvCommand sends one command and returns the response data. Transient
// connection errors are retried.
func mpvCommand(socketPath string, command ...any) (any, error) {
	var lastErr error
	for attempt := 0; attempt < mpvIPCRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(mpvIPCRetryDelay)
		}
		data, err := mpvSend(socketPath, command)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("mpv ipc failed after %d attempts: %w", mpvIPCRetries, lastErr)
}

func mpvSend(socketPath string, command []any) (any, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(mpvRequest{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(mpvIPCReadDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// The socket also carries event notifications; skip those until the
	// command response arrives.
	dec := json.NewDecoder(conn)
	for {
		var raw map[string]json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		if _, isEvent := raw["event"]; isEvent {
			continue
		}
		blob, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		var resp mpvResponse
		if err := json.Unmarshal(blob, &resp); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

// mpvListener maintains a persistent connection on which mpv pushes
// newline-delimited JSON notifications for observed properties.
type mpvListener struct {
	socketPath string
	callback   func(name string, data any)

	mu        sync.Mutex
	conn      net.Conn
	stopCh    chan struct{}
	listening bool
}

func newMPVListener(socketPath string, callback func(name string, data any)) *mpvListener {
	return &mpvListener{
		socketPath: socketPath,
		callback:   callback,
		stopCh:     make(chan struct{}),
	}
}

// start subscribes to the given properties and begins the read loop.
func (l *mpvListener) start(properties []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listening {
		return nil
	}

	for i, prop := range properties {
		if _, err := mpvCommand(l.socketPath, "observe_property", i+1, prop); err != nil {
			return fmt.Errorf("observe %s: %w", prop, err)
		}
	}

	conn, err := net.Dial("unix", l.socketPath)
	if err != nil {
		return fmt.Errorf("listener connect: %w", err)
	}
	l.conn = conn
	l.listening = true

	go l.readLoop()
	return nil
}

func (l *mpvListener) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.listening {
		return
	}
	close(l.stopCh)
	if l.conn != nil {
		l.conn.Close()
	}
	l.listening = false
}

func (l *mpvListener) readLoop() {
	defer func() {
		l.mu.Lock()
		l.listening = false
		l.mu.Unlock()
	}()

	buf := make([]byte, mpvIPCReadBufSize)
	var remainder []byte

	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}
		n, err := l.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-l.stopCh:
			default:
				log.Debugf("mpv listener read: %v", err)
			}
			return
		}

		data := append(remainder, buf[:n]...)
		remainder = nil

		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if i == len(lines)-1 && !strings.HasSuffix(string(data), "\n") {
				remainder = []byte(line)
				continue
			}
			l.dispatch(line)
		}
	}
}

func (l *mpvListener) dispatch(line string) {
	var event map[string]any
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return
	}
	name, _ := event["event"].(string)
	switch name {
	case "property-change":
		prop, _ := event["name"].(string)
		if prop != "" {
			l.callback(prop, event["data"])
		}
	case "":
	default:
		l.callback(name, event)
	}
}
