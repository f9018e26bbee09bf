package logging

import (
	"context"
	"errors"
	"log/slog"
)

// fanout hands every record to each sink enabled for its level. Sink errors
// are joined; a failing sink does not starve the others.
type fanout []slog.Handler

func newFanout(sinks ...slog.Handler) fanout {
	f := make(fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			f = append(f, s)
		}
	}
	return f
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, s := range f {
		out[i] = fn(s)
	}
	return out
}

// AttrSource yields the attributes of the battle in progress, nil between
// battles.
type AttrSource func() []slog.Attr

// battleStamp adds the current battle attributes to each record at handle
// time, so loggers derived before a battle starts still carry its id.
type battleStamp struct {
	next   slog.Handler
	source AttrSource
}

func (h battleStamp) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h battleStamp) Handle(ctx context.Context, r slog.Record) error {
	if attrs := h.source(); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h battleStamp) WithAttrs(attrs []slog.Attr) slog.Handler {
	return battleStamp{next: h.next.WithAttrs(attrs), source: h.source}
}

func (h battleStamp) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return battleStamp{next: h.next.WithGroup(name), source: h.source}
}
