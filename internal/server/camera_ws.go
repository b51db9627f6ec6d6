package server

import (
	"encoding/base64"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"github.com/scenevox/scenevox/internal/camera"
	"github.com/scenevox/scenevox/internal/narrator"
	"github.com/scenevox/scenevox/internal/observe"
)

// handleCamera runs a live narration session over a WebSocket. The client
// streams JPEG frames as binary messages; the server describes the newest
// frame on the configured interval and pushes each narration back as a JSON
// text message. Frames arriving faster than the interval are dropped in
// favour of newer ones.
//
// Query parameters "prompt" and "language" carry the same meaning as the
// corresponding fields on POST /v1/describe.
func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("camera websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session ended")

	ctx := r.Context()
	s.metrics.ActiveCameraSessions.Add(ctx, 1)
	defer s.metrics.ActiveCameraSessions.Add(ctx, -1)

	q := r.URL.Query()
	feed := camera.NewFeed()

	// Buffered by one so a slow client drops narrations instead of stalling
	// the poller.
	narrations := make(chan *narrator.Narration, 1)
	poller := camera.NewPoller(feed, s.engine, camera.PollerConfig{
		Interval: s.capture.CameraInterval,
		Prompt:   q.Get("prompt"),
		Language: q.Get("language"),
		OnNarration: func(n *narrator.Narration) {
			select {
			case narrations <- n:
			default:
			}
		},
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return poller.Run(ctx)
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case n := <-narrations:
				if err := wsjson.Write(ctx, conn, n); err != nil {
					return err
				}
			}
		}
	})

	g.Go(func() error {
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return err
			}
			if typ != websocket.MessageBinary {
				continue
			}
			feed.Update(base64.StdEncoding.EncodeToString(data))
		}
	})

	err = g.Wait()
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		observe.Logger(r.Context()).Debug("camera session closed by client")
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	observe.Logger(r.Context()).Debug("camera session ended", "reason", err)
}
