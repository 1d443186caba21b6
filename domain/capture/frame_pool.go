package capture

import "sync"

// Reusable pixel buffer pool. A frame buffer is taken in CaptureFrame and
// handed back in Save once its pixels reached the raw log, so steady-state
// recording keeps a single frame-sized allocation in flight.
var pixelPool sync.Pool // stores *[]byte

// acquirePixels returns a buffer of exactly n bytes. Contents are undefined.
func acquirePixels(n int) []byte {
	if n <= 0 {
		return nil
	}
	if v := pixelPool.Get(); v != nil {
		buf := *(v.(*[]byte))
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]byte, n)
}

// recyclePixels returns buf to the pool. The caller must not touch buf
// afterwards.
func recyclePixels(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:0]
	pixelPool.Put(&buf)
}
