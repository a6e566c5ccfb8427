package breaker

type Outcome uint8

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// slidingWindow is a fixed-capacity ring buffer over the most recent call
// outcomes. It keeps a running failure count so the rate never requires a
// full scan. Not safe for concurrent use; the owning breaker serializes
// access.
type slidingWindow struct {
	outcomes []Outcome
	head     int
	length   int
	failures int
}

func newSlidingWindow(capacity int) *slidingWindow {
	return &slidingWindow{
		outcomes: make([]Outcome, capacity),
	}
}

// add appends an outcome, evicting the oldest entry once the window is full.
func (w *slidingWindow) add(o Outcome) {
	if w.length == len(w.outcomes) {
		if w.outcomes[w.head] == OutcomeFailure {
			w.failures--
		}
	} else {
		w.length++
	}

	w.outcomes[w.head] = o
	if o == OutcomeFailure {
		w.failures++
	}
	w.head = (w.head + 1) % len(w.outcomes)
}

func (w *slidingWindow) len() int {
	return w.length
}

// failureRate returns the failure percentage over the current window
// contents, 0 while the window is empty.
func (w *slidingWindow) failureRate() float64 {
	if w.length == 0 {
		return 0
	}
	return float64(w.failures) / float64(w.length) * 100
}

func (w *slidingWindow) reset() {
	w.head = 0
	w.length = 0
	w.failures = 0
}
