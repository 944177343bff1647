package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSteps struct {
	calls []Step
	fail  map[Step]error
}

func (r *recordingSteps) do(s Step) error {
	r.calls = append(r.calls, s)
	return r.fail[s]
}

func (r *recordingSteps) InstallSystem(context.Context) error { return r.do(StepSystem) }
func (r *recordingSteps) BuildJsonc(context.Context) error    { return r.do(StepJsonc) }
func (r *recordingSteps) BuildLibev(context.Context) error    { return r.do(StepLibev) }
func (r *recordingSteps) BuildCommon(context.Context) error   { return r.do(StepCommon) }
func (r *recordingSteps) BuildFastotvProtocol(context.Context) error {
	return r.do(StepFastotvProtocol)
}

func TestRun_AllStepsInOrder(t *testing.T) {
	steps := &recordingSteps{}
	require.NoError(t, Run(context.Background(), DefaultOptions(), steps))
	assert.Equal(t, Order(), steps.calls)
}

// Every toggle is ANDed with its master switch.
func TestEnabled_MasterSwitchGating(t *testing.T) {
	type toggle struct {
		step   Step
		set    func(*Options, bool)
		master func(*Options, bool)
	}
	other := func(o *Options, v bool) { o.InstallOtherPackages = v }
	fastogt := func(o *Options, v bool) { o.InstallFastogtPackages = v }
	toggles := []toggle{
		{StepSystem, func(o *Options, v bool) { o.WithSystem = v }, other},
		{StepJsonc, func(o *Options, v bool) { o.WithJsonc = v }, other},
		{StepLibev, func(o *Options, v bool) { o.WithLibev = v }, other},
		{StepCommon, func(o *Options, v bool) { o.WithCommon = v }, fastogt},
		{StepFastotvProtocol, func(o *Options, v bool) { o.WithFastotvProtocol = v }, fastogt},
	}

	for _, tg := range toggles {
		for _, with := range []bool{true, false} {
			for _, master := range []bool{true, false} {
				opts := DefaultOptions()
				tg.set(&opts, with)
				tg.master(&opts, master)

				steps := &recordingSteps{}
				require.NoError(t, Run(context.Background(), opts, steps))

				want := with && master
				assert.Equal(t, want, opts.Enabled(tg.step), "%s with=%v master=%v", tg.step, with, master)
				assert.Equal(t, want, contains(steps.calls, tg.step), "%s with=%v master=%v", tg.step, with, master)
			}
		}
	}
}

func TestRun_SkipsWithoutReordering(t *testing.T) {
	opts := DefaultOptions()
	opts.WithJsonc = false
	opts.WithCommon = false

	steps := &recordingSteps{}
	require.NoError(t, Run(context.Background(), opts, steps))
	assert.Equal(t, []Step{StepSystem, StepLibev, StepFastotvProtocol}, steps.calls)
	assert.Equal(t, steps.calls, opts.Active())
}

func TestRun_MasterSwitchesOff(t *testing.T) {
	opts := DefaultOptions()
	opts.InstallOtherPackages = false
	opts.InstallFastogtPackages = false

	steps := &recordingSteps{}
	require.NoError(t, Run(context.Background(), opts, steps))
	assert.Empty(t, steps.calls)
}

func TestRun_StopsAtFirstError(t *testing.T) {
	boom := errors.New("ninja: build stopped")
	steps := &recordingSteps{fail: map[Step]error{StepLibev: boom}}

	err := Run(context.Background(), DefaultOptions(), steps)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "libev")
	assert.Equal(t, []Step{StepSystem, StepJsonc, StepLibev}, steps.calls)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps := &recordingSteps{}
	err := Run(ctx, DefaultOptions(), steps)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, steps.calls)
}

func TestRunWithHooks(t *testing.T) {
	boom := errors.New("fail")
	steps := &recordingSteps{fail: map[Step]error{StepCommon: boom}}
	opts := DefaultOptions()
	opts.WithSystem = false

	var before []Step
	var after []error
	err := RunWithHooks(context.Background(), opts, steps, Hooks{
		Before: func(s Step) { before = append(before, s) },
		After:  func(_ Step, err error) { after = append(after, err) },
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []Step{StepJsonc, StepLibev, StepCommon}, before)
	assert.Equal(t, []error{nil, nil, boom}, after)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "system", StepSystem.String())
	assert.Equal(t, "fastotv_protocol", StepFastotvProtocol.String())
	assert.Equal(t, "Step(9)", Step(9).String())
}

func TestInvoke_UnknownStep(t *testing.T) {
	assert.Error(t, Invoke(context.Background(), &recordingSteps{}, Step(9)))
}

func contains(steps []Step, s Step) bool {
	for _, x := range steps {
		if x == s {
			return true
		}
	}
	return false
}
