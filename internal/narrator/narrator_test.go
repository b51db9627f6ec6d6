package narrator_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/scenevox/scenevox/internal/narrator"
	"github.com/scenevox/scenevox/pkg/audio"
	audiomock "github.com/scenevox/scenevox/pkg/audio/mock"
	"github.com/scenevox/scenevox/pkg/media"
	translatemock "github.com/scenevox/scenevox/pkg/provider/translate/mock"
	"github.com/scenevox/scenevox/pkg/provider/tts"
	ttsmock "github.com/scenevox/scenevox/pkg/provider/tts/mock"
	"github.com/scenevox/scenevox/pkg/provider/vision"
	visionmock "github.com/scenevox/scenevox/pkg/provider/vision/mock"
)

// testFrame is a tiny stand-in for a base64 JPEG.
var testFrame = base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF})

func testDescription() *vision.Description {
	return &vision.Description{
		Caption:   "a cat on a windowsill",
		Narrative: "A tabby cat sits on a sunny windowsill, watching birds outside.",
		Subjects:  []string{"cat", "windowsill"},
		Language:  "en",
	}
}

func TestDescribeFrame(t *testing.T) {
	vis := &visionmock.Provider{DescribeResult: testDescription()}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}),
		narrator.WithVision("mock", vis))

	n, err := e.DescribeFrame(context.Background(), testFrame, "focus on animals", "")
	if err != nil {
		t.Fatalf("DescribeFrame: %v", err)
	}
	if n.Caption != "a cat on a windowsill" {
		t.Errorf("caption = %q", n.Caption)
	}
	if n.Frames != 1 {
		t.Errorf("frames = %d, want 1", n.Frames)
	}
	if len(vis.DescribeCalls) != 1 {
		t.Fatalf("describe calls = %d, want 1", len(vis.DescribeCalls))
	}
	req := vis.DescribeCalls[0].Req
	if len(req.Frames) != 1 || req.Frames[0] != testFrame {
		t.Errorf("vision request frames = %v", req.Frames)
	}
	if req.Prompt != "focus on animals" {
		t.Errorf("vision request prompt = %q", req.Prompt)
	}
}

func TestDescribeFrame_NoVision(t *testing.T) {
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}))

	_, err := e.DescribeFrame(context.Background(), testFrame, "", "")
	if !errors.Is(err, narrator.ErrNoVision) {
		t.Errorf("err = %v, want ErrNoVision", err)
	}
}

func TestDescribeFrame_VisionError(t *testing.T) {
	vis := &visionmock.Provider{DescribeErr: errors.New("quota exceeded")}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}),
		narrator.WithVision("mock", vis))

	_, err := e.DescribeFrame(context.Background(), testFrame, "", "")
	if err == nil {
		t.Fatal("expected error from failing vision provider")
	}
}

func TestDescribeFrame_Translates(t *testing.T) {
	vis := &visionmock.Provider{DescribeResult: testDescription()}
	tr := &translatemock.Provider{TranslateResult: "eine Katze"}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}),
		narrator.WithVision("mock", vis),
		narrator.WithTranslator("mock", tr))

	n, err := e.DescribeFrame(context.Background(), testFrame, "", "de")
	if err != nil {
		t.Fatalf("DescribeFrame: %v", err)
	}
	if n.Language != "de" {
		t.Errorf("language = %q, want %q", n.Language, "de")
	}
	if n.Narrative != "eine Katze" {
		t.Errorf("narrative = %q, want translated text", n.Narrative)
	}
	// Narrative and caption are translated separately.
	if len(tr.TranslateCalls) != 2 {
		t.Errorf("translate calls = %d, want 2", len(tr.TranslateCalls))
	}
	if tr.TranslateCalls[0].TargetLanguage != "de" {
		t.Errorf("target language = %q", tr.TranslateCalls[0].TargetLanguage)
	}
}

func TestDescribeFrame_SkipsTranslationWhenLanguageMatches(t *testing.T) {
	desc := testDescription()
	desc.Language = "de"
	vis := &visionmock.Provider{DescribeResult: desc}
	tr := &translatemock.Provider{}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}),
		narrator.WithVision("mock", vis),
		narrator.WithTranslator("mock", tr))

	n, err := e.DescribeFrame(context.Background(), testFrame, "", "de")
	if err != nil {
		t.Fatalf("DescribeFrame: %v", err)
	}
	if len(tr.TranslateCalls) != 0 {
		t.Errorf("translate calls = %d, want 0", len(tr.TranslateCalls))
	}
	if n.Narrative != desc.Narrative {
		t.Errorf("narrative changed without translation: %q", n.Narrative)
	}
}

func TestDescribeVideo_SamplerFailure(t *testing.T) {
	vis := &visionmock.Provider{DescribeResult: testDescription()}
	sampler := media.NewSampler(
		media.WithFFprobePath("/nonexistent/ffprobe"),
		media.WithFFmpegPath("/nonexistent/ffmpeg"),
	)
	e := narrator.New(sampler, audio.NewPlayer(&audiomock.Sink{}),
		narrator.WithVision("mock", vis))

	n, err := e.DescribeVideo(context.Background(), "/tmp/missing.mp4", "", "")
	if !errors.Is(err, media.ErrMediaLoad) {
		t.Errorf("err = %v, want ErrMediaLoad", err)
	}
	if n != nil {
		t.Errorf("narration = %+v, want nil on sampler failure", n)
	}
	if len(vis.DescribeCalls) != 0 {
		t.Errorf("vision called %d times despite sampler failure", len(vis.DescribeCalls))
	}
}

// speechClip builds a Speech payload of n silent frames in the default format.
func speechClip(n int) *tts.Speech {
	return &tts.Speech{
		Audio:  base64.StdEncoding.EncodeToString(make([]byte, n*2)),
		Format: audio.DefaultFormat,
	}
}

func TestSpeak(t *testing.T) {
	provider := &ttsmock.Provider{SynthesizeResult: speechClip(100)}
	sink := &audiomock.Sink{}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(sink),
		narrator.WithTTS("mock", provider))

	if err := e.Speak(context.Background(), "hello there", "nova"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(provider.SynthesizeCalls) != 1 {
		t.Fatalf("synthesize calls = %d, want 1", len(provider.SynthesizeCalls))
	}
	req := provider.SynthesizeCalls[0].Req
	if req.Text != "hello there" || req.Voice != "nova" {
		t.Errorf("synthesize request = %+v", req)
	}
	if sink.OpenCount() != 1 {
		t.Errorf("sink opened %d times, want 1", sink.OpenCount())
	}
	if got := len(sink.Written(0)); got != 200 {
		t.Errorf("wrote %d bytes, want 200", got)
	}
}

func TestSpeak_NoTTS(t *testing.T) {
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}))

	err := e.Speak(context.Background(), "hello", "")
	if !errors.Is(err, narrator.ErrNoTTS) {
		t.Errorf("err = %v, want ErrNoTTS", err)
	}
}

func TestSpeak_DecodeError(t *testing.T) {
	provider := &ttsmock.Provider{SynthesizeResult: &tts.Speech{
		Audio:  "not-valid-base64!!!",
		Format: audio.DefaultFormat,
	}}
	sink := &audiomock.Sink{}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(sink),
		narrator.WithTTS("mock", provider))

	err := e.Speak(context.Background(), "hello", "")
	if !errors.Is(err, audio.ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
	if sink.OpenCount() != 0 {
		t.Errorf("sink opened despite decode failure")
	}
}

func TestSpeak_PlaybackError(t *testing.T) {
	provider := &ttsmock.Provider{SynthesizeResult: speechClip(10)}
	sink := &audiomock.Sink{OpenError: errors.New("device busy")}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(sink),
		narrator.WithTTS("mock", provider))

	err := e.Speak(context.Background(), "hello", "")
	if !errors.Is(err, audio.ErrPlayback) {
		t.Errorf("err = %v, want ErrPlayback", err)
	}
}

func TestSpeak_SynthesisError(t *testing.T) {
	provider := &ttsmock.Provider{SynthesizeErr: errors.New("voice not found")}
	sink := &audiomock.Sink{}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(sink),
		narrator.WithTTS("mock", provider))

	err := e.Speak(context.Background(), "hello", "bogus")
	if err == nil {
		t.Fatal("expected error from failing synthesis")
	}
	if sink.OpenCount() != 0 {
		t.Errorf("sink opened despite synthesis failure")
	}
}

func TestVoices(t *testing.T) {
	provider := &ttsmock.Provider{VoicesResult: []tts.Voice{
		{ID: "v1", Name: "Nova", Provider: "mock"},
		{ID: "v2", Name: "Echo", Provider: "mock"},
	}}
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}),
		narrator.WithTTS("mock", provider))

	voices, err := e.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 2 {
		t.Errorf("voices = %d, want 2", len(voices))
	}
	if provider.VoicesCallCount != 1 {
		t.Errorf("voices call count = %d, want 1", provider.VoicesCallCount)
	}
}

func TestVoices_NoTTS(t *testing.T) {
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}))

	_, err := e.Voices(context.Background())
	if !errors.Is(err, narrator.ErrNoTTS) {
		t.Errorf("err = %v, want ErrNoTTS", err)
	}
}

func TestHasProviders(t *testing.T) {
	e := narrator.New(media.NewSampler(), audio.NewPlayer(&audiomock.Sink{}),
		narrator.WithVision("mock", &visionmock.Provider{}))

	if !e.HasVision() {
		t.Error("HasVision = false with vision configured")
	}
	if e.HasTTS() {
		t.Error("HasTTS = true without tts configured")
	}
}
