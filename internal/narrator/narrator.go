// Package narrator orchestrates the scene narration pipeline.
//
// An [Engine] turns media into spoken descriptions in stages: frames are
// extracted with ffmpeg, described by a vision provider, optionally
// translated, synthesised to PCM audio, and handed to the audio player.
// Each stage is optional at construction time except sampling and playback;
// operations that need a missing stage return a sentinel error so HTTP
// handlers can map them to proper status codes.
//
// This package lives under internal/ because it encapsulates
// application-private processing logic and is not intended to be imported by
// external code.
package narrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scenevox/scenevox/internal/observe"
	"github.com/scenevox/scenevox/pkg/audio"
	"github.com/scenevox/scenevox/pkg/media"
	"github.com/scenevox/scenevox/pkg/provider/translate"
	"github.com/scenevox/scenevox/pkg/provider/tts"
	"github.com/scenevox/scenevox/pkg/provider/vision"
)

// ErrNoVision is returned by describe operations when no vision provider was
// configured.
var ErrNoVision = errors.New("narrator: no vision provider configured")

// ErrNoTTS is returned by Speak and Voices when no TTS provider was
// configured.
var ErrNoTTS = errors.New("narrator: no tts provider configured")

// Narration is the result of describing a piece of media.
type Narration struct {
	// Caption is a one-sentence summary of the scene.
	Caption string `json:"caption"`

	// Narrative is the full spoken-style description.
	Narrative string `json:"narrative"`

	// Subjects lists the main subjects identified in the scene.
	Subjects []string `json:"subjects,omitempty"`

	// Language is the BCP 47 tag of the narration text.
	Language string `json:"language,omitempty"`

	// Frames is the number of frames the description was based on.
	Frames int `json:"frames"`
}

// Option configures an [Engine].
type Option func(*Engine)

// WithVision sets the vision provider. The name is used in metrics labels.
func WithVision(name string, p vision.Provider) Option {
	return func(e *Engine) {
		e.visionName = name
		e.vision = p
	}
}

// WithTranslator sets an optional translation provider applied to
// descriptions when a target language is requested.
func WithTranslator(name string, p translate.Provider) Option {
	return func(e *Engine) {
		e.translateName = name
		e.translate = p
	}
}

// WithTTS sets the speech synthesis provider.
func WithTTS(name string, p tts.Provider) Option {
	return func(e *Engine) {
		e.ttsName = name
		e.tts = p
	}
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine runs the narration pipeline. Safe for concurrent use; concurrent
// Speak calls contend on the underlying [audio.Player], where the newest call
// wins.
type Engine struct {
	sampler *media.Sampler
	player  *audio.Player
	metrics *observe.Metrics

	visionName string
	vision     vision.Provider

	translateName string
	translate     translate.Provider

	ttsName string
	tts     tts.Provider
}

// New creates an Engine around the given sampler and player. Providers are
// attached via options.
func New(sampler *media.Sampler, player *audio.Player, opts ...Option) *Engine {
	e := &Engine{
		sampler: sampler,
		player:  player,
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// DescribeVideo samples the video at path and produces a narration. The
// prompt optionally steers the description focus; lang optionally requests a
// target language (BCP 47).
func (e *Engine) DescribeVideo(ctx context.Context, path, prompt, lang string) (*Narration, error) {
	if e.vision == nil {
		return nil, ErrNoVision
	}
	ctx, span := observe.StartSpan(ctx, "narrator.DescribeVideo")
	defer span.End()

	start := time.Now()
	frames, err := e.sampler.Sample(ctx, path)
	e.metrics.SampleDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	e.metrics.RecordFrames(ctx, "video", len(frames))

	jpegs := make([]string, len(frames))
	for i, f := range frames {
		jpegs[i] = f.JPEG
	}
	return e.describe(ctx, "video", jpegs, prompt, lang)
}

// DescribeImage converts the image at path to a single frame and produces a
// narration.
func (e *Engine) DescribeImage(ctx context.Context, path, prompt, lang string) (*Narration, error) {
	if e.vision == nil {
		return nil, ErrNoVision
	}
	ctx, span := observe.StartSpan(ctx, "narrator.DescribeImage")
	defer span.End()

	start := time.Now()
	frame, err := e.sampler.CaptureStill(ctx, path)
	e.metrics.SampleDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	e.metrics.RecordFrames(ctx, "image", 1)

	return e.describe(ctx, "image", []string{frame.JPEG}, prompt, lang)
}

// DescribeFrame produces a narration from an already-encoded JPEG frame
// (base64, no data URI prefix). Used by the camera feed, which receives
// frames over the wire instead of from disk.
func (e *Engine) DescribeFrame(ctx context.Context, jpeg, prompt, lang string) (*Narration, error) {
	if e.vision == nil {
		return nil, ErrNoVision
	}
	ctx, span := observe.StartSpan(ctx, "narrator.DescribeFrame")
	defer span.End()

	e.metrics.RecordFrames(ctx, "camera", 1)
	return e.describe(ctx, "camera", []string{jpeg}, prompt, lang)
}

// describe runs the vision and optional translation stages.
func (e *Engine) describe(ctx context.Context, source string, jpegs []string, prompt, lang string) (*Narration, error) {
	start := time.Now()
	desc, err := e.vision.Describe(ctx, vision.Request{
		Frames:   jpegs,
		Prompt:   prompt,
		Language: lang,
	})
	e.metrics.VisionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		e.metrics.RecordProviderError(ctx, e.visionName, "vision")
		return nil, fmt.Errorf("describe %s: %w", source, err)
	}
	e.metrics.RecordProviderRequest(ctx, e.visionName, "vision", "ok")

	n := &Narration{
		Caption:   desc.Caption,
		Narrative: desc.Narrative,
		Subjects:  desc.Subjects,
		Language:  desc.Language,
		Frames:    len(jpegs),
	}

	if lang != "" && e.translate != nil && n.Language != lang {
		if err := e.translateNarration(ctx, n, lang); err != nil {
			return nil, err
		}
	}

	e.metrics.RecordNarration(ctx, source)
	observe.Logger(ctx).Debug("produced narration",
		"source", source,
		"frames", n.Frames,
		"language", n.Language)
	return n, nil
}

// translateNarration rewrites the narration text in the target language.
func (e *Engine) translateNarration(ctx context.Context, n *Narration, lang string) error {
	start := time.Now()
	defer func() {
		e.metrics.TranslateDuration.Record(ctx, time.Since(start).Seconds())
	}()

	narrative, err := e.translate.Translate(ctx, n.Narrative, lang)
	if err != nil {
		e.metrics.RecordProviderError(ctx, e.translateName, "translate")
		return fmt.Errorf("translate narration: %w", err)
	}
	caption := n.Caption
	if caption != "" {
		caption, err = e.translate.Translate(ctx, caption, lang)
		if err != nil {
			e.metrics.RecordProviderError(ctx, e.translateName, "translate")
			return fmt.Errorf("translate caption: %w", err)
		}
	}
	e.metrics.RecordProviderRequest(ctx, e.translateName, "translate", "ok")

	n.Narrative = narrative
	n.Caption = caption
	n.Language = lang
	return nil
}

// Speak synthesises text and plays it through the audio sink. A Speak call
// that arrives while another is playing stops the older one; the superseded
// call returns [audio.ErrSuperseded].
func (e *Engine) Speak(ctx context.Context, text, voice string) error {
	if e.tts == nil {
		return ErrNoTTS
	}
	ctx, span := observe.StartSpan(ctx, "narrator.Speak")
	defer span.End()

	start := time.Now()
	speech, err := e.tts.Synthesize(ctx, tts.Request{Text: text, Voice: voice})
	e.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		e.metrics.RecordProviderError(ctx, e.ttsName, "tts")
		return fmt.Errorf("synthesize: %w", err)
	}
	e.metrics.RecordProviderRequest(ctx, e.ttsName, "tts", "ok")

	clip, err := audio.DecodeBase64PCM16(speech.Audio, speech.Format)
	if err != nil {
		return err
	}

	start = time.Now()
	err = e.player.Play(ctx, clip)
	e.metrics.PlaybackDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return err
	}

	observe.Logger(ctx).Debug("spoke narration",
		"chars", len(text),
		"clip_duration", clip.Duration())
	return nil
}

// Narrate describes the video at path and speaks the result. The returned
// narration is valid even when playback was superseded by a newer call; in
// that case err is [audio.ErrSuperseded].
func (e *Engine) Narrate(ctx context.Context, path, prompt, lang, voice string) (*Narration, error) {
	n, err := e.DescribeVideo(ctx, path, prompt, lang)
	if err != nil {
		return nil, err
	}
	if err := e.Speak(ctx, n.Narrative, voice); err != nil {
		return n, err
	}
	return n, nil
}

// Voices lists the voices offered by the configured TTS provider.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	if e.tts == nil {
		return nil, ErrNoTTS
	}
	return e.tts.Voices(ctx)
}

// HasVision reports whether a vision provider is configured.
func (e *Engine) HasVision() bool { return e.vision != nil }

// HasTTS reports whether a TTS provider is configured.
func (e *Engine) HasTTS() bool { return e.tts != nil }
