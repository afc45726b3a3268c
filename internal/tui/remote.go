package tui

type loadState int

const (
	loadIdle loadState = iota
	loadLoading
	loadSuccess
	loadFailure
)

// remote is one fetched piece of screen state. Each begin() bumps the
// sequence; only the response to the latest request is applied, and a
// failure keeps the last good value.
type remote[T any] struct {
	state loadState
	value T
	err   error
	seq   int
}

func (r *remote[T]) begin() int {
	r.seq++
	r.state = loadLoading
	return r.seq
}

// resolve applies a response and reports whether it was current.
func (r *remote[T]) resolve(seq int, v T, err error) bool {
	if seq != r.seq {
		return false
	}
	if err != nil {
		r.state = loadFailure
		r.err = err
		return true
	}
	r.value = v
	r.err = nil
	r.state = loadSuccess
	return true
}

func (r remote[T]) loading() bool { return r.state == loadLoading }

func (r remote[T]) failed() bool { return r.state == loadFailure }
