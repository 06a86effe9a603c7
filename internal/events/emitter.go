package events

import (
	"context"
)

var Emit = func(ctx context.Context, name string, evt ToolEvent) {}

// EnableLogEmitter routes all emitted events to the structured logger.
func EnableLogEmitter() {
	Emit = func(ctx context.Context, name string, evt ToolEvent) {
		if evt.AppKey == "" {
			if app := AppFromContext(ctx); app != "" {
				evt.AppKey = app
			}
		}
		logEvent(name, evt)
	}
}

func SetCustomEmitter(f func(ctx context.Context, name string, evt ToolEvent)) {
	if f == nil {
		Emit = func(context.Context, string, ToolEvent) {}
		return
	}
	Emit = func(ctx context.Context, name string, evt ToolEvent) {
		if evt.AppKey == "" {
			if app := AppFromContext(ctx); app != "" {
				evt.AppKey = app
			}
		}
		f(ctx, name, evt)
	}
}
