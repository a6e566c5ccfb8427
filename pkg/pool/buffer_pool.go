// Package pool recycles byte buffers used when copying upstream response
// bodies out of fasthttp's reusable request/response objects.
package pool

import (
	"sync"
)

const maxPooledCap = 16384

var byteBufferPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 1024)
	},
}

func GetByteBuffer() []byte {
	return byteBufferPool.Get().([]byte)[:0]
}

func PutByteBuffer(buf []byte) {
	if cap(buf) > maxPooledCap {
		return
	}
	byteBufferPool.Put(buf)
}
