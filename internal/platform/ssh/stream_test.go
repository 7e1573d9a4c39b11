package ssh

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTailBuffer_KeepsTail(t *testing.T) {
	t.Parallel()
	b := newTailBuffer(10, nil)

	for i := 0; i < 10; i++ {
		_, _ = b.Write([]byte("0123456789"))
	}
	_, _ = b.Write([]byte("abc"))

	assert.Equal(t, "3456789abc", b.String())
	assert.True(t, b.Truncated())
}

func TestTailBuffer_SplitLinesAcrossWrites(t *testing.T) {
	t.Parallel()
	var lines []string
	b := newTailBuffer(1024, func(l string) { lines = append(lines, l) })

	_, _ = b.Write([]byte("hel"))
	_, _ = b.Write([]byte("lo\nwor"))
	_, _ = b.Write([]byte("ld\n\ntail"))
	b.flush()

	assert.Equal(t, []string{"hello", "world", "", "tail"}, lines)
	assert.False(t, b.Truncated())
}

func TestTailBuffer_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	b := newTailBuffer(1<<20, nil)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = b.Write([]byte("line\n"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, strings.Count(b.String(), "line\n"))
}
