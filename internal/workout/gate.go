package workout

import (
	"context"

	"github.com/lowaak/cardiosplit/internal/session"
)

// PermissionGate asks for the capabilities a session needs before it starts
type PermissionGate interface {
	Request(ctx context.Context) error
}

// StaticGate answers permission requests from configuration
type StaticGate struct {
	Location bool
	Activity bool
}

func (g StaticGate) Request(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !g.Location {
		return &session.PermissionDeniedError{Capability: "location"}
	}
	if !g.Activity {
		return &session.PermissionDeniedError{Capability: "physical activity"}
	}
	return nil
}

// AllowAll grants every request
var AllowAll PermissionGate = StaticGate{Location: true, Activity: true}
