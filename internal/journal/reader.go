package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

// RawEntry is one journal line with its payload left undecoded.
type RawEntry struct {
	Seq     uint64          `json:"seq"`
	Ts      int64           `json:"ts"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Replay streams every entry under a journal directory in segment order,
// calling fn per line. Segment filenames sort chronologically, so
// lexicographic order is replay order.
func Replay(dir, prefix string, fn func(RawEntry) error) error {
	if prefix == "" {
		prefix = "audit"
	}
	pattern := filepath.Join(dir, prefix+"-*.jsonl")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, path := range files {
		if err := replayFile(path, fn); err != nil {
			return errors.Wrap(err, "replay segment").With("file", path)
		}
	}
	return nil
}

func replayFile(path string, fn func(RawEntry) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64<<10), 4<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry RawEntry
		if err := sonic.Unmarshal(line, &entry); err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return scanner.Err()
}
