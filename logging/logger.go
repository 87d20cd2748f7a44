package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger provides verbose protocol-level debug logging with hex dump
// capability. It writes to a dedicated log file and is intended for
// troubleshooting connection and framing issues. All methods are safe to
// call on a nil *Logger (logging is then a no-op), so callers that haven't
// configured a logger don't need to guard every call site.
type Logger struct {
	file   *os.File
	mu     sync.Mutex
	closed bool
}

var (
	globalLogger   *Logger
	globalLoggerMu sync.RWMutex
)

// New creates a logger writing to path. The file is truncated if it
// already exists, so each run starts with a fresh log.
func New(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}

	l := &Logger{file: file}
	l.Log("debug", "logging started - %s", time.Now().Format(time.RFC3339))
	return l, nil
}

// SetGlobal installs l as the package-level default logger.
func SetGlobal(l *Logger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = l
}

// Global returns the package-level default logger, or nil if none was set.
func Global() *Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// Log writes a formatted, timestamped, tagged message.
func (l *Logger) Log(tag, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.file, "%s [%s] %s\n", ts, tag, fmt.Sprintf(format, args...))
}

// TX logs transmitted bytes with a hex dump.
func (l *Logger) TX(tag string, data []byte) { l.logPacket(tag, "TX", data) }

// RX logs received bytes with a hex dump.
func (l *Logger) RX(tag string, data []byte) { l.logPacket(tag, "RX", data) }

func (l *Logger) logPacket(tag, direction string, data []byte) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.file, "%s [%s] %s (%d bytes):\n%s\n", ts, tag, direction, len(data), hexDump(data))
}

// Connect logs a connection attempt.
func (l *Logger) Connect(tag, address string) {
	l.Log(tag, "connect to %s", address)
}

// ConnectSuccess logs a successful connection.
func (l *Logger) ConnectSuccess(tag, address, details string) {
	l.Log(tag, "connected to %s - %s", address, details)
}

// ConnectError logs a failed connection attempt.
func (l *Logger) ConnectError(tag, address string, err error) {
	l.Log(tag, "connect to %s failed: %v", address, err)
}

// Disconnect logs a disconnection.
func (l *Logger) Disconnect(tag, address, reason string) {
	l.Log(tag, "disconnect from %s: %s", address, reason)
}

// LogError logs an error with its context.
func (l *Logger) LogError(tag, context string, err error) {
	l.Log(tag, "error in %s: %v", context, err)
}

// Close closes the log file. Safe to call more than once.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	fmt.Fprintf(l.file, "%s [debug] logging ended\n", time.Now().Format("2006-01-02 15:04:05.000"))
	return l.file.Close()
}

// hexDump renders data as offset/hex/ASCII lines, 16 bytes per line.
func hexDump(data []byte) string {
	if len(data) == 0 {
		return "    (empty)"
	}

	var sb strings.Builder
	for offset := 0; offset < len(data); offset += 16 {
		sb.WriteString(fmt.Sprintf("    %04X: ", offset))
		for i := 0; i < 8; i++ {
			if offset+i < len(data) {
				sb.WriteString(fmt.Sprintf("%02X ", data[offset+i]))
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteString(" ")
		for i := 8; i < 16; i++ {
			if offset+i < len(data) {
				sb.WriteString(fmt.Sprintf("%02X ", data[offset+i]))
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteString(" ")
		for i := 0; i < 16 && offset+i < len(data); i++ {
			b := data[offset+i]
			if b >= 32 && b < 127 {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("\n")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
