package chat

import (
	"io"
	"sync"
)

// Tee duplicates one upstream stream into two independently consumable
// readers. Chunks land in a shared append-only buffer and each reader keeps
// its own offset, so a slow or absent consumer on one branch never blocks
// or drops data for the other. The upstream is closed once both branches
// are closed.
func Tee(src io.ReadCloser) (client io.ReadCloser, collector io.ReadCloser) {
	s := &teeState{src: src}
	s.cond = sync.NewCond(&s.mu)

	go s.pump()

	return &teeReader{state: s}, &teeReader{state: s}
}

type teeState struct {
	src  io.ReadCloser
	mu   sync.Mutex
	cond *sync.Cond

	buf    []byte
	err    error // terminal pump state, io.EOF on clean end
	closed int   // readers that have been closed
}

func (s *teeState) pump() {
	chunk := make([]byte, 4096)
	for {
		n, err := s.src.Read(chunk)

		s.mu.Lock()
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
		}
		if err != nil {
			s.err = err
			s.mu.Unlock()
			s.cond.Broadcast()
			return
		}
		s.mu.Unlock()
		s.cond.Broadcast()
	}
}

type teeReader struct {
	state  *teeState
	offset int
	closed bool
}

func (r *teeReader) Read(p []byte) (int, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if r.closed {
			return 0, io.ErrClosedPipe
		}
		if r.offset < len(s.buf) {
			n := copy(p, s.buf[r.offset:])
			r.offset += n
			return n, nil
		}
		if s.err != nil {
			return 0, s.err
		}
		s.cond.Wait()
	}
}

func (r *teeReader) Close() error {
	s := r.state
	s.mu.Lock()
	if r.closed {
		s.mu.Unlock()
		return nil
	}
	r.closed = true
	s.closed++
	last := s.closed == 2
	s.mu.Unlock()
	s.cond.Broadcast()

	if last {
		return s.src.Close()
	}
	return nil
}
