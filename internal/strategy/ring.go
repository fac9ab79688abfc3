package strategy

// barRing is a fixed-capacity rolling buffer of bars. Once full, each push
// overwrites the oldest bar. Indexing is by position so the channel window
// never reallocates.
type barRing struct {
	buf   []Bar
	head  int // index of the next write slot
	count int
}

func newBarRing(capacity int) *barRing {
	return &barRing{buf: make([]Bar, capacity)}
}

func (r *barRing) push(b Bar) {
	r.buf[r.head] = b
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

func (r *barRing) len() int { return r.count }

// fromEnd returns the bar n positions back from the newest. fromEnd(0) is the
// most recently pushed bar. Caller must keep n < len().
func (r *barRing) fromEnd(n int) Bar {
	idx := (r.head - 1 - n + 2*len(r.buf)) % len(r.buf)
	return r.buf[idx]
}
