package ssh

import (
	"bytes"
	"sync"
)

// tailBuffer collects combined output, keeps only the last limit bytes and
// hands every complete line to onLine as it arrives.
type tailBuffer struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	partial   []byte
	truncated bool
	onLine    func(string)
}

func newTailBuffer(limit int, onLine func(string)) *tailBuffer {
	return &tailBuffer{limit: limit, onLine: onLine}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if len(b.buf) > 2*b.limit {
		b.buf = append([]byte(nil), b.buf[len(b.buf)-b.limit:]...)
		b.truncated = true
	}

	if b.onLine != nil {
		b.partial = append(b.partial, p...)
		for {
			i := bytes.IndexByte(b.partial, '\n')
			if i < 0 {
				break
			}
			b.onLine(string(bytes.TrimRight(b.partial[:i], "\r")))
			b.partial = b.partial[i+1:]
		}
		if len(b.partial) > b.limit {
			b.partial = b.partial[len(b.partial)-b.limit:]
		}
	}
	return len(p), nil
}

// flush emits a trailing line without newline.
func (b *tailBuffer) flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.onLine != nil && len(b.partial) > 0 {
		b.onLine(string(b.partial))
	}
	b.partial = nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) > b.limit {
		b.truncated = true
		return string(b.buf[len(b.buf)-b.limit:])
	}
	return string(b.buf)
}

func (b *tailBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated || len(b.buf) > b.limit
}
