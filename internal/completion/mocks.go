package completion

import (
	"context"
	"io"
)

type MockProvider struct {
	StreamFunc func(ctx context.Context, prompt string, temperature float64) (FragmentReader, error)
}

func (m *MockProvider) Stream(ctx context.Context, prompt string, temperature float64) (FragmentReader, error) {
	return m.StreamFunc(ctx, prompt, temperature)
}

// SliceReader replays fragments and then ends with Err, or io.EOF when Err is nil.
type SliceReader struct {
	Fragments []string
	Err       error
	Closed    bool
	next      int
}

func (r *SliceReader) Recv() (string, error) {
	if r.next < len(r.Fragments) {
		f := r.Fragments[r.next]
		r.next++
		return f, nil
	}
	if r.Err != nil {
		return "", r.Err
	}
	return "", io.EOF
}

func (r *SliceReader) Close() error {
	r.Closed = true
	return nil
}
