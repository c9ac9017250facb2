package stream

import "errors"

// ErrDisposed is returned by operations on a stream that already reached a
// terminal state. The disposed state is one-way: no operation revives a
// stream after Reflect or Dispose.
var ErrDisposed = errors.New("stream disposed")
