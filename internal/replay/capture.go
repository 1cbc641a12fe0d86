// Package replay records raw GNSS serial traffic and plays it back with its
// original timing.
//
// Log format: line-oriented text.
//
//   - Blank lines ignored.
//   - Lines starting with '#' ignored.
//   - Line "START" resets the origin (next record time is relative to 0 again).
//   - Data lines are: <t_ns>,<hex>
//     where t_ns is nanoseconds since START and hex is a chunk of raw serial
//     bytes, normally one sentence including its CR/LF.
package replay

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Record struct {
	At    time.Duration
	Chunk []byte
}

// IsStart reports whether r is a START marker.
func (r Record) IsStart() bool { return r.Chunk == nil }

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	s.Buffer(make([]byte, 0, 4096), 64*1024)

	recs := make([]Record, 0, 256)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{})
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, errors.Errorf("invalid capture line (missing comma): %q", line)
		}
		tsStr := strings.TrimSpace(line[:comma])
		hexStr := strings.ReplaceAll(strings.TrimSpace(line[comma+1:]), " ", "")
		if tsStr == "" || hexStr == "" {
			return nil, errors.Errorf("invalid capture line (empty field): %q", line)
		}

		tsNs, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid capture timestamp %q", tsStr)
		}
		if tsNs < 0 {
			return nil, errors.Errorf("invalid capture timestamp (negative): %d", tsNs)
		}
		b, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, errors.Wrap(err, "invalid capture hex payload")
		}
		recs = append(recs, Record{At: time.Duration(tsNs), Chunk: b})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// Load reads a whole capture file.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open capture")
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

type Writer struct {
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

// CreateWriter starts a new capture file, or appends a new START segment to
// an existing one when appendTo is set.
func CreateWriter(path string, appendTo bool) (*Writer, error) {
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendTo {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "create capture")
	}
	bw := bufio.NewWriterSize(f, 16*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now()}, nil
}

func (ww *Writer) WriteChunk(now time.Time, chunk []byte) error {
	if ww.closed {
		return errors.New("capture writer is closed")
	}
	if len(chunk) == 0 {
		return nil
	}
	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), hex.EncodeToString(chunk))
	return err
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	return ww.f.Close()
}
