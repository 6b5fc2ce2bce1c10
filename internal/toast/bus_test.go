package toast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recorder collects every snapshot a subscriber sees.
type recorder struct {
	mu    sync.Mutex
	snaps [][]Item
}

func (r *recorder) listen(items []Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, items)
}

func (r *recorder) last() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func messages(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Message)
	}
	return out
}

func TestBus_AddPreservesInsertionOrder(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()), WithLogger(zaptest.NewLogger(t)))
	rec := &recorder{}
	unsub := b.Subscribe(rec.listen)
	defer unsub()

	b.Add("one", Info, 0)
	b.Add("two", Success, 0)
	b.Add("three", Error, 0)

	got := rec.last()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"one", "two", "three"}, messages(got))
	assert.Equal(t, []Kind{Info, Success, Error}, []Kind{got[0].Kind, got[1].Kind, got[2].Kind})

	// initial delivery plus one per add
	assert.Equal(t, 4, rec.count())
	for i, snap := range rec.snaps {
		assert.Len(t, snap, i, "snapshot %d", i)
	}
}

func TestBus_SubscribeDeliversCurrentState(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))
	b.Add("early", Warning, 0)

	rec := &recorder{}
	b.Subscribe(rec.listen)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, []string{"early"}, messages(rec.last()))
}

func TestBus_RemoveMissingIsNoop(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))
	rec := &recorder{}
	b.Subscribe(rec.listen)
	b.Add("keep", Info, 0)
	before := rec.last()
	n := rec.count()

	b.Remove(9999)

	assert.Equal(t, n+1, rec.count(), "subscribers are still notified")
	assert.Equal(t, before, rec.last())
	assert.Len(t, b.Items(), 1)
}

func TestBus_RemoveTwiceIsIdempotent(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))
	id := b.Add("x", Info, 0)
	b.Add("y", Info, 0)

	b.Remove(id)
	b.Remove(id)
	assert.Equal(t, []string{"y"}, messages(b.Items()))
}

func TestBus_IDsStrictlyIncreaseAcrossRemovals(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))
	var last int64
	for i := 0; i < 20; i++ {
		id := b.Add("m", Info, 0)
		require.Greater(t, id, last)
		last = id
		if i%2 == 0 {
			b.Remove(id)
		}
	}
	items := b.Items()
	require.Len(t, items, 10)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, int64(20), items[9].ID)
}

func TestBus_AutoExpiry(t *testing.T) {
	t.Parallel()
	clock := NewManualClock()
	b := New(WithClock(clock))
	rec := &recorder{}
	b.Subscribe(rec.listen)

	b.Add("bye", Info, 50*time.Millisecond)
	require.Len(t, rec.last(), 1)

	clock.Advance(49 * time.Millisecond)
	require.Len(t, b.Items(), 1)

	clock.Advance(2 * time.Millisecond)
	assert.Empty(t, b.Items())
	assert.Empty(t, rec.last(), "subscriber must see the removal")
	assert.Equal(t, 0, clock.Pending())
}

func TestBus_AutoExpiryIndependentPerItem(t *testing.T) {
	t.Parallel()
	clock := NewManualClock()
	b := New(WithClock(clock))

	b.Add("first", Info, 100*time.Millisecond)
	clock.Advance(60 * time.Millisecond)
	b.Add("second", Info, 100*time.Millisecond)

	clock.Advance(40 * time.Millisecond)
	assert.Equal(t, []string{"second"}, messages(b.Items()), "later adds must not reset earlier timers")

	clock.Advance(60 * time.Millisecond)
	assert.Empty(t, b.Items())
}

func TestBus_ZeroTimeoutNeverExpires(t *testing.T) {
	t.Parallel()
	clock := NewManualClock()
	b := New(WithClock(clock))
	b.Add("a", Info, 0)
	b.Add("b", Info, 0)
	b.Add("c", Info, 0)
	assert.Equal(t, 0, clock.Pending())
	clock.Advance(time.Hour)
	assert.Len(t, b.Items(), 3)
}

func TestBus_RealClockExpiry(t *testing.T) {
	t.Parallel()
	b := New()
	rec := &recorder{}
	b.Subscribe(rec.listen)
	b.Add("soon gone", Success, 50*time.Millisecond)

	require.Eventually(t, func() bool { return len(b.Items()) == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.last())
}

func TestBus_DefaultKindAndHelpers(t *testing.T) {
	t.Parallel()
	clock := NewManualClock()
	b := New(WithClock(clock), WithDefaultTimeout(time.Second))

	b.Add("plain", "", 0)
	b.Success("ok")
	b.Error("bad")
	b.Warning("hm")
	b.Info("fyi")

	items := b.Items()
	require.Len(t, items, 5)
	assert.Equal(t, Info, items[0].Kind)
	assert.Equal(t, Success, items[1].Kind)
	assert.Equal(t, Error, items[2].Kind)
	assert.Equal(t, Warning, items[3].Kind)
	assert.Equal(t, Info, items[4].Kind)

	clock.Advance(time.Second)
	assert.Equal(t, []string{"plain"}, messages(b.Items()))
}

func TestBus_Unsubscribe(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))
	rec := &recorder{}
	unsub := b.Subscribe(rec.listen)
	b.Add("seen", Info, 0)
	unsub()
	unsub()
	b.Add("unseen", Info, 0)

	assert.Equal(t, 2, rec.count())
	assert.Equal(t, []string{"seen"}, messages(rec.last()))
}

func TestBus_MultipleSubscribersSeeEveryTransition(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))
	r1, r2 := &recorder{}, &recorder{}
	b.Subscribe(r1.listen)
	b.Subscribe(r2.listen)

	id := b.Add("x", Info, 0)
	b.Remove(id)

	// r1 saw: initial, r2's subscribe does not reach r1, add, remove
	assert.Equal(t, 3, r1.count())
	assert.Equal(t, 3, r2.count())
	assert.Empty(t, r1.last())
	assert.Empty(t, r2.last())
}

func TestBus_ReentrantListenerKeepsOrder(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))

	var seen [][]string
	b.Subscribe(func(items []Item) {
		seen = append(seen, messages(items))
		// dismiss errors as soon as they show up
		for _, it := range items {
			if it.Kind == Error {
				b.Remove(it.ID)
			}
		}
	})

	b.Add("boom", Error, 0)
	b.Add("fine", Info, 0)

	assert.Equal(t, [][]string{{}, {"boom"}, {}, {"fine"}}, seen)
}

func TestBus_ConcurrentAddsKeepUniqueIDs(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))
	var wg sync.WaitGroup
	ids := make(chan int64, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- b.Add("c", Info, 0)
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	items := b.Items()
	require.Len(t, items, 200)
	for i := 1; i < len(items); i++ {
		require.Greater(t, items[i].ID, items[i-1].ID)
	}
}

func TestBus_AddWaitsForBusyDispatcher(t *testing.T) {
	t.Parallel()
	clock := NewManualClock()
	b := New(WithClock(clock), WithLogger(zaptest.NewLogger(t)))

	entered := make(chan struct{})
	release := make(chan struct{})
	rec := &recorder{}
	var once sync.Once
	b.Subscribe(func(items []Item) {
		rec.listen(items)
		if len(items) == 0 && rec.count() > 2 {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	})

	b.Add("first", Info, 10*time.Millisecond)
	go clock.Advance(10 * time.Millisecond)
	<-entered

	returned := make(chan []Item, 1)
	go func() {
		b.Add("second", Info, 0)
		returned <- rec.last()
	}()

	assert.Never(t, func() bool { return len(returned) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	close(release)

	select {
	case last := <-returned:
		assert.Equal(t, []string{"second"}, messages(last))
	case <-time.After(time.Second):
		t.Fatal("Add did not return after the listener was released")
	}
	assert.Equal(t, 4, rec.count())
}

func TestBus_ReentrantAddDoesNotWait(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()))
	done := make(chan struct{})
	go func() {
		defer close(done)
		var nested bool
		b.Subscribe(func(items []Item) {
			if len(items) == 1 && !nested {
				nested = true
				b.Add("nested", Info, 0)
			}
		})
		b.Add("outer", Info, 0)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener publishing into the bus deadlocked")
	}
	assert.Equal(t, []string{"outer", "nested"}, messages(b.Items()))
}

func TestBus_PanickingListenerDropsQueuedSnapshots(t *testing.T) {
	t.Parallel()
	b := New(WithClock(NewManualClock()), WithLogger(zaptest.NewLogger(t)))

	var seen [][]string
	var panicked bool
	b.Subscribe(func(items []Item) {
		seen = append(seen, messages(items))
		if len(items) == 1 && items[0].Message == "bad" && !panicked {
			panicked = true
			b.Add("queued", Info, 0)
			panic("listener failed")
		}
	})

	assert.PanicsWithValue(t, "listener failed", func() { b.Add("bad", Error, 0) })
	assert.Equal(t, [][]string{{}, {"bad"}}, seen)

	seen = nil
	b.Add("after", Info, 0)
	assert.Equal(t, [][]string{{"bad", "queued", "after"}}, seen)
}
