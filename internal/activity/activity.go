// Package activity appends one line per handled event to the command log.
package activity

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Proton-105/cryptoassist-bot/pkg/config"
	"github.com/Proton-105/cryptoassist-bot/pkg/metrics"
)

// Header is written at the start of every new log file.
const Header = "Telegram Bot Command Log \n\n"

const timeLayout = "2006-01-02 15:04:05"

const (
	megabyte         = 1024 * 1024
	defaultMaxSizeMB = 100
)

// Kind is the event variant a record describes.
type Kind string

const (
	KindCommand  Kind = "Command"
	KindCallback Kind = "Callback"
	KindMessage  Kind = "Message"
)

// Record is a single activity log line.
type Record struct {
	Time     time.Time
	UserID   int64
	Username string
	FullName string
	Kind     Kind
	Value    string
}

// Format renders the record without the trailing newline.
func (r Record) Format() string {
	username := r.Username
	if username == "" {
		username = "No username"
	}

	name := r.FullName
	if name == "" {
		name = "No name"
	}

	// keep one record per line
	value := strings.ReplaceAll(r.Value, "\n", " ")

	return fmt.Sprintf("[%s] User ID: %d, Username: @%s, Name: %s, %s: %s",
		r.Time.Format(timeLayout), r.UserID, username, name, r.Kind, value)
}

// Log appends records to w. Each Append is a single write.
type Log struct {
	mu  sync.Mutex
	w   io.Writer
	log *slog.Logger
}

// New wraps an arbitrary writer.
func New(w io.Writer, log *slog.Logger) *Log {
	return &Log{w: w, log: log}
}

// Append writes r as one line.
func (l *Log) Append(r Record) error {
	line := r.Format() + "\n"

	l.mu.Lock()
	_, err := io.WriteString(l.w, line)
	l.mu.Unlock()

	if err != nil {
		if l.log != nil {
			l.log.Warn("activity log append failed", slog.Int64("telegram_id", r.UserID), slog.Any("error", err))
		}
		return fmt.Errorf("append activity record: %w", err)
	}

	metrics.RecordActivity(string(r.Kind))
	return nil
}

// FileLog is a Log backed by a rotating file. Rotated files are kept forever.
type FileLog struct {
	*Log
	file     *lumberjack.Logger
	maxBytes int64
	size     int64
}

// OpenFile prepares cfg.Path, writing Header when the file is new or empty.
func OpenFile(cfg config.ActivityConfig, log *slog.Logger) (*FileLog, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create activity log dir: %w", err)
		}
	}

	maxSizeMB := cfg.MaxSizeMB
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}

	// MaxBackups and MaxAge stay zero: lumberjack never prunes this log.
	file := &lumberjack.Logger{
		Filename: cfg.Path,
		MaxSize:  maxSizeMB,
		Compress: cfg.Compress,
	}

	fl := &FileLog{file: file, maxBytes: int64(maxSizeMB) * megabyte}
	fl.Log = New(fl, log)
	if err := fl.writeHeaderIfEmpty(); err != nil {
		return nil, err
	}

	return fl, nil
}

// Write implements io.Writer for the embedded Log, which holds the lock.
// It rotates before lumberjack would so that every file starts with Header.
func (f *FileLog) Write(p []byte) (int, error) {
	if f.size > 0 && f.size+int64(len(p)) > f.maxBytes {
		if err := f.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

// Rotate starts a fresh file, keeping the old one as a backup.
func (f *FileLog) Rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.rotate()
}

func (f *FileLog) Close() error {
	return f.file.Close()
}

func (f *FileLog) rotate() error {
	if err := f.file.Rotate(); err != nil {
		return fmt.Errorf("rotate activity log: %w", err)
	}
	f.size = 0

	return f.writeHeader()
}

func (f *FileLog) writeHeaderIfEmpty() error {
	info, err := os.Stat(f.file.Filename)
	if err == nil && info.Size() > 0 {
		f.size = info.Size()
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stat activity log: %w", err)
	}

	return f.writeHeader()
}

func (f *FileLog) writeHeader() error {
	n, err := io.WriteString(f.file, Header)
	f.size += int64(n)
	if err != nil {
		return fmt.Errorf("write activity log header: %w", err)
	}

	return nil
}
