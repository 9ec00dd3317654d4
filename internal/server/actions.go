package server

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/recordui/internal/bridge"
	"github.com/sells-group/recordui/internal/diff"
	"github.com/sells-group/recordui/internal/record"
	"github.com/sells-group/recordui/internal/render"
	"github.com/sells-group/recordui/internal/store"
)

// actionHandler receives dispatched bridge messages.
type actionHandler struct {
	renderer *render.Renderer
	cache    *ArtifactCache
	store    store.Store
}

func (h *actionHandler) OnResize(_ context.Context, s bridge.SizeChange) {
	zap.L().Debug("artifact resized", zap.String("uri", s.URI), zap.Int("height", s.Height))
}

func (h *actionHandler) OnAction(ctx context.Context, a bridge.UserAction) {
	log := zap.L().With(zap.String("uri", a.URI), zap.String("action", string(a.Action)))

	message := a.Message
	switch a.Action {
	case bridge.ActionSave:
		message = h.verify(a, log)
		log.Info("artifact saved", zap.String("message", message))
	case bridge.ActionCancel:
		log.Info("artifact cancelled")
	case bridge.ActionEdit:
		h.openForm(a, log)
	}

	if h.store == nil {
		return
	}
	err := h.store.RecordAction(ctx, &store.Action{
		URI:     a.URI,
		Kind:    string(a.Action),
		Message: message,
		Fields:  a.Fields,
	})
	if err != nil {
		log.Error("record action", zap.Error(err))
	}
}

// verify recomputes the change summary against the cached original. The
// host's own summary wins when the two disagree.
func (h *actionHandler) verify(a bridge.UserAction, log *zap.Logger) string {
	art, ok := h.cache.Lookup(a.URI)
	if !ok || art.Original == nil {
		log.Debug("no cached original, accepting reported summary")
		return a.Message
	}
	want := diff.Describe(diff.Compute(art.Original, a.Fields, art.Order))
	if want != a.Message {
		log.Warn("reported summary differs from host diff",
			zap.String("reported", a.Message),
			zap.String("computed", want),
		)
	}
	return want
}

// openForm renders an edit form for a table row so the host can show it.
func (h *actionHandler) openForm(a bridge.UserAction, log *zap.Logger) {
	rec := record.FromMap(a.Fields)
	if !rec.Has(record.LabelName) || !rec.Has(record.LabelID) {
		log.Warn("edit request without Name and Id")
		return
	}
	art, err := h.renderer.Form(rec)
	if err != nil {
		log.Error("render edit form", zap.Error(err))
		return
	}
	h.cache.Put(art)
	log.Info("edit form ready",
		zap.String("form_uri", art.URI),
		zap.String("host_url", "/host/"+ArtifactID(art.URI)),
	)
}
