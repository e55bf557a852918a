package bears

// Stream is a lazily produced sequence of result items. Implementations are
// not required to be safe for concurrent use; a single invocation consumes
// its streams sequentially.
type Stream interface {
	// Next returns the next item. The boolean is false once the stream is
	// exhausted, after which further calls must keep returning false.
	Next() (any, bool)
}

// funcStream adapts a pull function to a Stream.
type funcStream struct {
	fn   func() (any, bool)
	done bool
}

func (s *funcStream) Next() (any, bool) {
	if s.done {
		return nil, false
	}
	item, ok := s.fn()
	if !ok {
		s.done = true
		return nil, false
	}
	return item, true
}

// FromFunc wraps a pull function into a Stream. The function is not called
// again after it first reports exhaustion.
func FromFunc(fn func() (any, bool)) Stream {
	return &funcStream{fn: fn}
}

// FromSlice returns a Stream over the given items.
func FromSlice(items []any) Stream {
	i := 0
	return FromFunc(func() (any, bool) {
		if i >= len(items) {
			return nil, false
		}
		item := items[i]
		i++
		return item, true
	})
}

// Materialize drains a stream into a slice, never returning nil.
func Materialize(s Stream) []any {
	out := []any{}
	for {
		item, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

// teeSource buffers items pulled from the underlying stream so that two
// cursors can read it independently.
type teeSource struct {
	src  Stream
	buf  []any
	done bool
}

// pull makes sure at least i+1 items are buffered, reporting whether the
// item at index i exists.
func (t *teeSource) pull(i int) bool {
	for len(t.buf) <= i && !t.done {
		item, ok := t.src.Next()
		if !ok {
			t.done = true
			break
		}
		t.buf = append(t.buf, item)
	}
	return i < len(t.buf)
}

type teeCursor struct {
	src *teeSource
	pos int
}

func (c *teeCursor) Next() (any, bool) {
	if !c.src.pull(c.pos) {
		return nil, false
	}
	item := c.src.buf[c.pos]
	c.pos++
	return item, true
}

// Tee splits a stream into two independent cursors over a shared buffered
// source. Draining one cursor forces production of every item (and the cost
// of producing it) while the other cursor still observes the full sequence.
func Tee(s Stream) (Stream, Stream) {
	src := &teeSource{src: s}
	return &teeCursor{src: src}, &teeCursor{src: src}
}

// Normalize coerces a run handler's raw output into a concrete result list:
// slices pass through, streams are drained, nil becomes the empty list and
// any other single value becomes a one-element list.
func Normalize(v any) []any {
	switch out := v.(type) {
	case nil:
		return []any{}
	case []any:
		if out == nil {
			return []any{}
		}
		return out
	case Stream:
		return Materialize(out)
	default:
		return []any{out}
	}
}
