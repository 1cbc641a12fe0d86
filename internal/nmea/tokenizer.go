package nmea

import "bytes"

// TokenCapacity is the number of field slots in a Tokens table.
const TokenCapacity = 15

// Tokens records where each comma-separated field of a line starts.
type Tokens struct {
	line  []byte
	start [TokenCapacity]int
	n     int
}

// Reset unsets every slot.
func (t *Tokens) Reset() { *t = Tokens{} }

// Tokenize splits line at commas, in place. Every comma it visits is
// overwritten with NUL and the byte after it becomes the start of the next
// field, unless that byte is another comma: empty fields are elided, not
// recorded. Slot 0 is always the start of line. Tokenizing stops once the
// table is full, leaving later commas untouched.
//
// An interior NUL is read as a comma an earlier pass already consumed, so
// tokenizing the same line again rebuilds the same table.
//
// It returns the number of slots recorded.
func Tokenize(line []byte, t *Tokens) int {
	t.Reset()
	t.line = line
	t.start[0] = 0
	t.n = 1
	for i := 0; i < len(line); i++ {
		if !isSep(line[i]) {
			continue
		}
		if i+1 >= len(line) || !isSep(line[i+1]) {
			t.start[t.n] = i + 1
			t.n++
		}
		line[i] = 0
		if t.n >= TokenCapacity {
			break
		}
	}
	return t.n
}

func isSep(c byte) bool { return c == ',' || c == 0 }

// Len returns the number of occupied slots.
func (t *Tokens) Len() int { return t.n }

// Offset returns the start of slot i within the tokenized line.
func (t *Tokens) Offset(i int) (int, bool) {
	if i < 0 || i >= t.n {
		return 0, false
	}
	return t.start[i], true
}

// Field returns slot i up to its NUL terminator, or nil if the slot is
// unset. The slice aliases the tokenized line.
func (t *Tokens) Field(i int) []byte {
	off, ok := t.Offset(i)
	if !ok {
		return nil
	}
	f := t.line[off:]
	if end := bytes.IndexByte(f, 0); end >= 0 {
		f = f[:end]
	}
	return f
}
