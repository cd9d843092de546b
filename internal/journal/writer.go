// Package journal is the engine's append-only audit log. Every committed
// capital movement and settlement is written as one JSON line; segments
// rotate by size and age.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
)

var (
	ErrClosed     = errors.New("journal: writer closed")
	ErrInvalidDir = errors.New("journal: empty directory")
)

// Config controls segment rotation and buffering.
type Config struct {
	Dir             string
	FilePrefix      string
	SegmentMaxBytes int64
	SegmentMaxAge   time.Duration
	BufferSize      int
}

func (cfg Config) withDefaults() Config {
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = "audit"
	}
	if cfg.SegmentMaxBytes <= 0 {
		cfg.SegmentMaxBytes = 64 << 20
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64 << 10
	}
	return cfg
}

// Entry is one committed mutation.
type Entry struct {
	Seq     uint64 `json:"seq"`
	Ts      int64  `json:"ts"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

type segment struct {
	file     *os.File
	buf      *bufio.Writer
	size     int64
	openedAt time.Time
}

// Writer appends entries to rotating JSONL segments. It is synchronous:
// the engine's mutating paths are already serialized, so no queue sits in
// front of it.
type Writer struct {
	cfg    Config
	seg    *segment
	segID  uint64
	seq    uint64
	closed bool
}

// NewWriter creates a journal writer and ensures the directory exists.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, ErrInvalidDir
	}
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{cfg: cfg}, nil
}

// Record appends one entry, assigning it the next sequence number.
func (w *Writer) Record(kind string, payload any) error {
	if w.closed {
		return ErrClosed
	}
	w.seq++
	entry := Entry{
		Seq:     w.seq,
		Ts:      time.Now().UTC().UnixNano(),
		Kind:    kind,
		Payload: payload,
	}
	line, err := sonic.ConfigFastest.Marshal(entry)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if w.shouldRotate(now, int64(len(line))+1) {
		if err := w.closeSegment(); err != nil {
			return err
		}
		if err := w.openSegment(now); err != nil {
			return err
		}
	}
	if _, err := w.seg.buf.Write(line); err != nil {
		return err
	}
	if err := w.seg.buf.WriteByte('\n'); err != nil {
		return err
	}
	w.seg.size += int64(len(line)) + 1
	return nil
}

// Flush pushes buffered lines to the current segment file.
func (w *Writer) Flush() error {
	if w.seg == nil {
		return nil
	}
	return w.seg.buf.Flush()
}

// Close flushes and closes the current segment.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.closeSegment()
}

func (w *Writer) shouldRotate(now time.Time, nextSize int64) bool {
	if w.seg == nil {
		return true
	}
	if w.seg.size+nextSize > w.cfg.SegmentMaxBytes {
		return true
	}
	if w.cfg.SegmentMaxAge > 0 && now.Sub(w.seg.openedAt) >= w.cfg.SegmentMaxAge {
		return true
	}
	return false
}

func (w *Writer) openSegment(now time.Time) error {
	ts := now.Format("20060102-150405")
	for {
		w.segID++
		name := fmt.Sprintf("%s-%s-%06d.jsonl", w.cfg.FilePrefix, ts, w.segID)
		path := filepath.Join(w.cfg.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return err
		}
		w.seg = &segment{
			file:     file,
			buf:      bufio.NewWriterSize(file, w.cfg.BufferSize),
			openedAt: now,
		}
		return nil
	}
}

func (w *Writer) closeSegment() error {
	if w.seg == nil {
		return nil
	}
	seg := w.seg
	w.seg = nil
	if err := seg.buf.Flush(); err != nil {
		_ = seg.file.Close()
		return err
	}
	if err := seg.file.Sync(); err != nil {
		_ = seg.file.Close()
		return err
	}
	return seg.file.Close()
}
