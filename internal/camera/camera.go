// Package camera implements live camera narration.
//
// A [Feed] is a single-slot mailbox for the newest camera frame: writers
// replace the slot, readers take the latest and never see a backlog. A
// [Poller] wakes on a fixed interval, describes the newest unseen frame, and
// pushes the narration to a callback. Frames that arrive faster than the
// poll interval are silently dropped in favour of newer ones.
package camera

import (
	"context"
	"sync"
	"time"

	"github.com/scenevox/scenevox/internal/narrator"
	"github.com/scenevox/scenevox/internal/observe"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 5 * time.Second

// Feed holds the most recent camera frame. Safe for concurrent use.
type Feed struct {
	mu   sync.Mutex
	jpeg string
	seq  uint64
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Update replaces the current frame with jpeg (base64, no data URI prefix)
// and returns the new sequence number.
func (f *Feed) Update(jpeg string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jpeg = jpeg
	f.seq++
	return f.seq
}

// Latest returns the current frame and its sequence number. The sequence is 0
// and the frame empty until the first Update.
func (f *Feed) Latest() (string, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jpeg, f.seq
}

// Describer produces a narration for a single frame. Implemented by
// [narrator.Engine].
type Describer interface {
	DescribeFrame(ctx context.Context, jpeg, prompt, lang string) (*narrator.Narration, error)
}

// PollerConfig configures a [Poller].
type PollerConfig struct {
	// Interval between describe attempts. Defaults to [DefaultInterval].
	Interval time.Duration

	// Prompt optionally steers the description focus.
	Prompt string

	// Language optionally requests a target narration language (BCP 47).
	Language string

	// OnNarration receives each successful narration. Required.
	OnNarration func(*narrator.Narration)
}

// Poller periodically describes the newest frame in a [Feed].
type Poller struct {
	feed     *Feed
	describe Describer
	cfg      PollerConfig
}

// NewPoller creates a Poller over feed using d to describe frames.
func NewPoller(feed *Feed, d Describer, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{feed: feed, describe: d, cfg: cfg}
}

// Run polls until ctx is cancelled. Each tick describes the latest frame if
// it changed since the previous description. Describe failures are logged
// and the loop continues; a flaky provider must not end the session.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		jpeg, seq := p.feed.Latest()
		if seq == 0 || seq == lastSeq {
			continue
		}

		n, err := p.describe.DescribeFrame(ctx, jpeg, p.cfg.Prompt, p.cfg.Language)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observe.Logger(ctx).Warn("camera frame description failed", "error", err)
			continue
		}
		lastSeq = seq
		p.cfg.OnNarration(n)
	}
}
