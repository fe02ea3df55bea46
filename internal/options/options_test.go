package options

import (
	"errors"
	"testing"

	"github.com/arloliu/arps/errs"
	"github.com/stretchr/testify/require"
)

type gridConfig struct {
	Step    int
	Horizon int
	Label   string
}

func (c *gridConfig) setStep(v int) error {
	if v <= 0 {
		return errors.New("step must be positive")
	}
	c.Step = v

	return nil
}

func withStep(v int) Option[*gridConfig] {
	return New(func(c *gridConfig) error { return c.setStep(v) })
}

func withHorizon(v int) Option[*gridConfig] {
	return NoError(func(c *gridConfig) { c.Horizon = v })
}

func withLabel(s string) Option[*gridConfig] {
	return NoError(func(c *gridConfig) { c.Label = s })
}

func TestOption_New(t *testing.T) {
	t.Run("applies a fallible option", func(t *testing.T) {
		cfg := &gridConfig{}
		require.NoError(t, withStep(30).apply(cfg))
		require.Equal(t, 30, cfg.Step)
	})

	t.Run("propagates the option error", func(t *testing.T) {
		cfg := &gridConfig{}
		err := withStep(0).apply(cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "step must be positive")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &gridConfig{}
		err := Apply(cfg, withStep(30), withHorizon(180), withLabel("first"), withLabel("second"))
		require.NoError(t, err)
		require.Equal(t, gridConfig{Step: 30, Horizon: 180, Label: "second"}, *cfg)
	})

	t.Run("stops at first error and wraps it", func(t *testing.T) {
		cfg := &gridConfig{}
		err := Apply(cfg, withStep(15), withStep(-1), withHorizon(90))
		require.ErrorIs(t, err, errs.ErrInvalidOption)
		require.Contains(t, err.Error(), "step must be positive")
		require.Equal(t, 15, cfg.Step)
		require.Zero(t, cfg.Horizon)
	})

	t.Run("does not double wrap", func(t *testing.T) {
		cfg := &gridConfig{}
		opt := New(func(*gridConfig) error { return errs.ErrInvalidOption })
		err := Apply[*gridConfig](cfg, opt)
		require.Equal(t, errs.ErrInvalidOption, err)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &gridConfig{}
		require.NoError(t, Apply(cfg, nil, withHorizon(60)))
		require.Equal(t, 60, cfg.Horizon)
	})

	t.Run("empty option list leaves target untouched", func(t *testing.T) {
		cfg := &gridConfig{Step: 7}
		require.NoError(t, Apply(cfg))
		require.Equal(t, 7, cfg.Step)
	})
}

func TestOption_GenericsWithPrimitive(t *testing.T) {
	var n int
	require.NoError(t, Apply(&n, Option[*int](NoError(func(p *int) { *p = 42 }))))
	require.Equal(t, 42, n)
}
