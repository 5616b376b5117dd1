package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhsa24/randomwalk/internal/metrics"
	"github.com/jhsa24/randomwalk/internal/sampler"
)

func randomSamplers(seed uint64) SamplerFactory {
	return func(sample int) (Samplers, error) {
		rng := sampler.NewRand(seed, sample)
		return Samplers{
			StepLength:  sampler.Constant(1),
			TurnAngle:   sampler.Uniform(rng, -math.Pi/5, math.Pi/5),
			BranchAngle: sampler.Constant(math.Pi / 3),
			BranchWait:  sampler.Exponential(rng, 1.0/15),
		}, nil
	}
}

func TestRunSamples(t *testing.T) {
	cfg := testConfig(60, 0.9)

	stores, err := RunSamples(context.Background(), cfg, 6, 2, randomSamplers(11), WithRecorder(metrics.NewRecorder()))
	require.NoError(t, err)
	require.Len(t, stores, 6)

	for i, st := range stores {
		require.NotNil(t, st, "sample %d", i)
		require.NoError(t, st.Validate(), "sample %d", i)
	}

	again, err := RunSamples(context.Background(), cfg, 6, 0, randomSamplers(11))
	require.NoError(t, err)
	for i := range stores {
		a, _ := json.Marshal(stores[i])
		b, _ := json.Marshal(again[i])
		assert.JSONEq(t, string(a), string(b), "sample %d must not depend on scheduling", i)
	}

	a, _ := json.Marshal(stores[0])
	b, _ := json.Marshal(stores[1])
	assert.NotEqual(t, string(a), string(b), "samples must use independent streams")
}

func TestRunSamples_Errors(t *testing.T) {
	_, err := RunSamples(context.Background(), testConfig(10, 0), 0, 1, randomSamplers(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = RunSamples(context.Background(), testConfig(0, 0), 2, 1, randomSamplers(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	boom := errors.New("boom")
	_, err = RunSamples(context.Background(), testConfig(10, 0), 3, 1, func(sample int) (Samplers, error) {
		if sample == 1 {
			return Samplers{}, boom
		}
		return straight(), nil
	})
	assert.ErrorIs(t, err, boom)

	_, err = RunSamples(context.Background(), testConfig(10, 0), 2, 1, func(int) (Samplers, error) {
		return Samplers{}, nil
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunSamples(ctx, testConfig(10, 0), 2, 1, randomSamplers(1))
	assert.ErrorIs(t, err, context.Canceled)
}
