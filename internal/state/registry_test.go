package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord() *StrokeRecord {
	return NewStrokeRecord(NewPaint(Red, DefaultStrokeWidth, DefaultShadowRadius))
}

func TestRegistryPreservesInsertionOrder(t *testing.T) {
	reg := NewRegistry()
	recs := []*StrokeRecord{newRecord(), newRecord(), newRecord()}
	for _, r := range recs {
		reg.Append(r)
	}

	var got []*StrokeRecord
	for r := range reg.Snapshot() {
		got = append(got, r)
	}
	assert.Equal(t, recs, got)
	assert.Equal(t, 3, reg.Len())
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	a, b := newRecord(), newRecord()
	reg.Append(a)
	reg.Append(b)

	assert.True(t, reg.Remove(a))
	assert.False(t, reg.Remove(a))
	assert.False(t, reg.Remove(newRecord()))
	assert.Equal(t, []*StrokeRecord{b}, reg.Records())
}

func TestRegistrySnapshotIgnoresLaterMutation(t *testing.T) {
	reg := NewRegistry()
	a, b, c := newRecord(), newRecord(), newRecord()
	reg.Append(a)
	reg.Append(b)

	seq := reg.Snapshot()
	reg.Remove(a)
	reg.Append(c)

	var got []*StrokeRecord
	for r := range seq {
		got = append(got, r)
	}
	assert.Equal(t, []*StrokeRecord{a, b}, got)
	assert.Equal(t, []*StrokeRecord{b, c}, reg.Records())
}

func TestRegistrySnapshotStopsEarly(t *testing.T) {
	reg := NewRegistry()
	for range 5 {
		reg.Append(newRecord())
	}
	n := 0
	for range reg.Snapshot() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestRegistryMarkFadeEligible(t *testing.T) {
	reg := NewRegistry()
	a, b := newRecord(), newRecord()
	reg.Append(a)
	reg.Append(b)
	assert.False(t, reg.Animating())

	reg.MarkFadeEligible(a)
	assert.True(t, a.FadeEligible())
	assert.False(t, b.FadeEligible())
	assert.True(t, reg.Animating())

	assert.Equal(t, 1, reg.MarkAllFadeEligible())
	assert.True(t, b.FadeEligible())
	assert.Equal(t, 0, reg.MarkAllFadeEligible())
}

func TestRegistryConcurrentAppendRemoveIterate(t *testing.T) {
	const n = 2000
	reg := NewRegistry()
	toRemove := make(chan *StrokeRecord, n)
	kept := make([]*StrokeRecord, 0, n/2)
	removed := 0

	var writers sync.WaitGroup
	writers.Add(2)

	// input goroutine
	go func() {
		defer writers.Done()
		defer close(toRemove)
		for i := range n {
			rec := newRecord()
			reg.Append(rec)
			if i%2 == 0 {
				toRemove <- rec
			} else {
				kept = append(kept, rec)
			}
		}
	}()

	// fade goroutine
	go func() {
		defer writers.Done()
		for rec := range toRemove {
			if reg.Remove(rec) {
				removed++
			}
			assert.False(t, reg.Remove(rec))
		}
	}()

	// render goroutine
	done := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-done:
				return
			default:
			}
			for rec := range reg.Snapshot() {
				assert.NotNil(t, rec)
				_ = rec.Paint()
			}
		}
	}()

	writers.Wait()
	close(done)
	<-readerDone

	assert.Equal(t, n/2, removed)
	require.Equal(t, n/2, reg.Len())
	for _, rec := range kept {
		assert.True(t, reg.Contains(rec))
	}
	assert.Equal(t, kept, reg.Records())
}
