package trackdb

import (
	"context"
	"errors"
	"github.com/rotblauer/trackclust/types/segment"
	"testing"
)

type recordingSink struct {
	written  []*segment.GridResult
	err      error
	closeErr error
	closed   bool
}

func (r *recordingSink) WriteGrid(_ context.Context, result *segment.GridResult) error {
	if r.err != nil {
		return r.err
	}
	r.written = append(r.written, result)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.closeErr
}

func TestMulti(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := Multi{a, b}
	result := &segment.GridResult{GridID: "g"}
	if err := m.WriteGrid(context.Background(), result); err != nil {
		t.Fatal(err)
	}
	if len(a.written) != 1 || len(b.written) != 1 {
		t.Errorf("written: %d %d", len(a.written), len(b.written))
	}

	boom := errors.New("boom")
	failing := &recordingSink{err: boom}
	c := &recordingSink{}
	m = Multi{failing, c}
	if err := m.WriteGrid(context.Background(), result); !errors.Is(err, boom) {
		t.Errorf("want boom, got %v", err)
	}
	if len(c.written) != 0 {
		t.Error("sink after failure was written")
	}
}

func TestMulti_Close(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recordingSink{closeErr: boom}, &recordingSink{}
	err := Multi{a, b}.Close()
	if !errors.Is(err, boom) {
		t.Errorf("want boom, got %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("not every sink closed")
	}
}

func TestDiscard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if err := (Discard{}).WriteGrid(ctx, &segment.GridResult{}); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := (Discard{}).WriteGrid(ctx, &segment.GridResult{}); !errors.Is(err, context.Canceled) {
		t.Errorf("want canceled, got %v", err)
	}
}
