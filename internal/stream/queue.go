package stream

import "sync"

// lineQueue is an unbounded single-producer/single-consumer FIFO. The producer
// closes it when it has nothing more to send; the consumer closes its side when
// it stops reading, which makes further pushes fail.
type lineQueue struct {
	mu       sync.Mutex
	lines    []string
	head     int
	closed   bool
	detached bool
}

// push appends a line. It reports false once the consumer has detached.
func (q *lineQueue) push(line string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.detached {
		return false
	}
	q.lines = append(q.lines, line)
	return true
}

// close marks the producer side finished.
func (q *lineQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// tryPop never blocks. ok is true when a line was returned; closed is true when
// no line was available and none will follow.
func (q *lineQueue) tryPop() (line string, ok bool, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head < len(q.lines) {
		line = q.lines[q.head]
		q.lines[q.head] = ""
		q.head++
		if q.head == len(q.lines) {
			q.lines = q.lines[:0]
			q.head = 0
		}
		return line, true, false
	}
	return "", false, q.closed
}

// detach drops any buffered lines and refuses further pushes.
func (q *lineQueue) detach() {
	q.mu.Lock()
	q.detached = true
	q.lines = nil
	q.head = 0
	q.mu.Unlock()
}
