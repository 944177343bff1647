package builder

import (
	"context"

	"github.com/fastogt/build-env/internal/bootstrap"
	"github.com/fastogt/build-env/internal/catalog"
	"github.com/fastogt/build-env/internal/installer"
	"github.com/fastogt/build-env/internal/platform"
)

var _ bootstrap.Steps = (*Steps)(nil)

// Steps performs the bootstrap steps: system packages through an
// installer driver, libraries through a Request.
type Steps struct {
	Env       platform.Environment
	Plan      catalog.Plan
	Installer *installer.Driver
	Builder   *Request

	// OnReport, if set, receives the result of the system step.
	OnReport func(installer.Report)
}

// InstallSystem installs the package plan. Package failures are
// reported through OnReport and never fail the step.
func (s *Steps) InstallSystem(ctx context.Context) error {
	report := s.Installer.InstallSystem(ctx, s.Env, s.Plan)
	if s.OnReport != nil {
		s.OnReport(report)
	}
	return ctx.Err()
}

// BuildJsonc builds json-c.
func (s *Steps) BuildJsonc(ctx context.Context) error { return s.Builder.BuildJsonc(ctx) }

// BuildLibev builds libev.
func (s *Steps) BuildLibev(ctx context.Context) error { return s.Builder.BuildLibev(ctx) }

// BuildCommon builds common.
func (s *Steps) BuildCommon(ctx context.Context) error { return s.Builder.BuildCommon(ctx) }

// BuildFastotvProtocol builds fastotv_protocol.
func (s *Steps) BuildFastotvProtocol(ctx context.Context) error {
	return s.Builder.BuildFastotvProtocol(ctx)
}
