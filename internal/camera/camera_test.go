package camera_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scenevox/scenevox/internal/camera"
	"github.com/scenevox/scenevox/internal/narrator"
)

func TestFeed_UpdateAndLatest(t *testing.T) {
	f := camera.NewFeed()

	if _, seq := f.Latest(); seq != 0 {
		t.Errorf("empty feed seq = %d, want 0", seq)
	}

	if seq := f.Update("frame-a"); seq != 1 {
		t.Errorf("first update seq = %d, want 1", seq)
	}
	f.Update("frame-b")

	jpeg, seq := f.Latest()
	if jpeg != "frame-b" {
		t.Errorf("latest = %q, want %q", jpeg, "frame-b")
	}
	if seq != 2 {
		t.Errorf("seq = %d, want 2", seq)
	}
}

func TestFeed_ConcurrentUpdates(t *testing.T) {
	f := camera.NewFeed()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Update("frame")
			}
		}()
	}
	wg.Wait()

	if _, seq := f.Latest(); seq != 1000 {
		t.Errorf("seq = %d, want 1000", seq)
	}
}

// fakeDescriber records described frames and can fail on demand.
type fakeDescriber struct {
	mu     sync.Mutex
	frames []string
	err    error
}

func (d *fakeDescriber) DescribeFrame(_ context.Context, jpeg, _, _ string) (*narrator.Narration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	d.frames = append(d.frames, jpeg)
	return &narrator.Narration{Narrative: "described " + jpeg, Frames: 1}, nil
}

func (d *fakeDescriber) described() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.frames...)
}

func (d *fakeDescriber) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPoller_DescribesLatestFrame(t *testing.T) {
	feed := camera.NewFeed()
	d := &fakeDescriber{}

	var mu sync.Mutex
	var narrations []*narrator.Narration
	p := camera.NewPoller(feed, d, camera.PollerConfig{
		Interval: 10 * time.Millisecond,
		OnNarration: func(n *narrator.Narration) {
			mu.Lock()
			narrations = append(narrations, n)
			mu.Unlock()
		},
	})

	feed.Update("old")
	feed.Update("new")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(narrations) >= 1
	})

	got := d.described()
	if len(got) == 0 || got[0] != "new" {
		t.Errorf("described frames = %v, want newest frame first", got)
	}
}

func TestPoller_SkipsUnchangedFrame(t *testing.T) {
	feed := camera.NewFeed()
	d := &fakeDescriber{}

	p := camera.NewPoller(feed, d, camera.PollerConfig{
		Interval:    5 * time.Millisecond,
		OnNarration: func(*narrator.Narration) {},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	feed.Update("only-frame")

	waitFor(t, func() bool { return len(d.described()) >= 1 })

	// Let several more ticks pass; the unchanged frame must not be
	// re-described.
	time.Sleep(50 * time.Millisecond)
	if got := len(d.described()); got != 1 {
		t.Errorf("describe count = %d, want 1 for unchanged frame", got)
	}
}

func TestPoller_ContinuesAfterDescribeError(t *testing.T) {
	feed := camera.NewFeed()
	d := &fakeDescriber{}
	d.setErr(errors.New("provider down"))

	p := camera.NewPoller(feed, d, camera.PollerConfig{
		Interval:    5 * time.Millisecond,
		OnNarration: func(*narrator.Narration) {},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	feed.Update("frame-1")
	time.Sleep(30 * time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("poller exited on describe error: %v", err)
	default:
	}

	// Provider recovers; the frame should now be described.
	d.setErr(nil)
	waitFor(t, func() bool { return len(d.described()) >= 1 })
}

func TestPoller_StopsOnContextCancel(t *testing.T) {
	feed := camera.NewFeed()
	p := camera.NewPoller(feed, &fakeDescriber{}, camera.PollerConfig{
		Interval:    5 * time.Millisecond,
		OnNarration: func(*narrator.Narration) {},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := camera.NewPoller(camera.NewFeed(), &fakeDescriber{}, camera.PollerConfig{
		OnNarration: func(*narrator.Narration) {},
	})
	if p == nil {
		t.Fatal("NewPoller returned nil")
	}
}
