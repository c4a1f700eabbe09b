package compress

import (
	"bytes"
	"sync"
)

// encodeBufferPool reuses JPEG encode buffers across ladder stages.
// One capture can encode up to nine times, and the server runs
// captures concurrently, so starting from a screenshot-sized buffer
// skips most of the growth copies.
var encodeBufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 256*1024))
	},
}

func getEncodeBuffer() *bytes.Buffer {
	buf := encodeBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putEncodeBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 2*BudgetBytes {
		return // don't pool oversized buffers
	}
	encodeBufferPool.Put(buf)
}
