// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"io"

	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
)

// PlannerService defines the use cases behind the form, loading and results flow.
// HTTP handlers drive it; sessions are identified by an opaque id.
type PlannerService interface {
	// Session flow
	Submit(ctx context.Context, sessionID string, profile nutrition.UserProfile) (*planning.Session, error)
	Session(ctx context.Context, sessionID string) (*planning.Session, error)
	Reset(ctx context.Context, sessionID string) error
	Report(ctx context.Context, sessionID string, w io.Writer) (ReportFile, error)

	// Stateless operations
	Calculate(profile nutrition.UserProfile) (nutrition.Targets, error)
	Generate(ctx context.Context, profile nutrition.UserProfile) (*planning.Result, error)
	RenderReport(result planning.Result, w io.Writer) (ReportFile, error)
}

// ReportFile describes a rendered report for the download response
type ReportFile struct {
	Filename    string
	ContentType string
}
