package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JaimeStill/roomset/internal/progress"
	"github.com/JaimeStill/roomset/internal/workflow"
)

const keepAliveInterval = 15 * time.Second

// Events streams the session as Server-Sent Events. A "state" event carries
// the state view after every change. While the session is generating, a
// "stage" event carries each tick of the progress animation.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	changed := make(chan struct{}, 1)
	unsubscribe := s.Controller.Subscribe(func(workflow.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ctx := r.Context()
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	var (
		ticks       <-chan progress.Tick
		stopCycling context.CancelFunc = func() {}
	)
	defer func() { stopCycling() }()

	refresh := func() error {
		state := s.Controller.State()
		switch {
		case state.Step == workflow.StepGenerate && ticks == nil:
			var cctx context.Context
			cctx, stopCycling = context.WithCancel(ctx)
			ticks = progress.Cycle(cctx, h.opts.StageInterval)
		case state.Step != workflow.StepGenerate && ticks != nil:
			stopCycling()
			ticks = nil
		}
		return writeEvent(w, rc, "state", NewStateView(state, h.opts.APIPath))
	}

	if err := refresh(); err != nil {
		return
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			h.logger.Debug("event stream closed by shutdown", "session", s.ID)
			return
		case <-changed:
			err = refresh()
		case tick, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			err = writeEvent(w, rc, "stage", tick)
		case <-keepAlive.C:
			if _, err = fmt.Fprint(w, ": keep-alive\n\n"); err == nil {
				err = rc.Flush()
			}
		}
		if err != nil {
			h.logger.Debug("event stream closed", "session", s.ID, "error", err)
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return rc.Flush()
}
