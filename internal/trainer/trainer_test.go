package trainer_test

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqnet/internal/codec"
	"github.com/born-ml/seqnet/internal/editdist"
	"github.com/born-ml/seqnet/internal/nn"
	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
	"github.com/born-ml/seqnet/internal/trainer"
)

// frames turns per-frame classes into one-hot features, so a softmax layer
// can learn the frame labelling directly.
func frames(t *testing.T, classes ...int) seq.Sequence {
	t.Helper()
	xs, err := seq.OneHot(classes, 3)
	require.NoError(t, err)
	return xs
}

type sample struct {
	xs         seq.Sequence
	transcript seq.Classes
}

func samples(t *testing.T) []sample {
	return []sample{
		{frames(t, 0, 1, 0, 2, 0), seq.Classes{1, 2}},
		{frames(t, 0, 2, 2, 0, 1), seq.Classes{2, 1}},
		{frames(t, 1, 1, 0, 0, 0), seq.Classes{1}},
		{frames(t, 0, 0, 2, 0, 0), seq.Classes{2}},
		{frames(t, 1, 0, 1, 0, 2), seq.Classes{1, 1, 2}},
	}
}

func newSoftmax(t *testing.T) *nn.Softmax {
	t.Helper()
	net := nn.NewSoftmax()
	require.NoError(t, net.Init(3, 3))
	net.SetLearningRate(0.5, 0)
	return net
}

func quietLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, trainer.DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*trainer.Config)
	}{
		{"negative report", func(c *trainer.Config) { c.ReportEvery = -1 }},
		{"zero floor", func(c *trainer.Config) { c.Floor = 0 }},
		{"floor of one", func(c *trainer.Config) { c.Floor = 1 }},
		{"positive skip", func(c *trainer.Config) { c.Skip = 1 }},
		{"negative save", func(c *trainer.Config) { c.SaveEvery = -1 }},
		{"save without path", func(c *trainer.Config) { c.SaveEvery = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := trainer.DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), nnerr.ErrUnsupportedShape)
		})
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := trainer.New(nil, nil, trainer.DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := trainer.DefaultConfig()
	cfg.Floor = -1
	_, err = trainer.New(newSoftmax(t), nil, cfg, nil)
	assert.ErrorIs(t, err, nnerr.ErrUnsupportedShape)
}

func TestNewRejectsDoubleAcceleration(t *testing.T) {
	net := newSoftmax(t)
	net.Config.Accelerated = true
	cfg := trainer.DefaultConfig()

	_, err := trainer.New(net, nil, cfg, nil)
	require.NoError(t, err, "an accelerated softmax alone is fine")

	cfg.Accelerated = true
	_, err = trainer.New(net, nil, cfg, nil)
	assert.ErrorIs(t, err, nnerr.ErrUnsupportedShape)

	stack := nn.NewStacked()
	require.NoError(t, stack.Add(net))
	_, err = trainer.New(stack, nil, cfg, nil)
	assert.ErrorIs(t, err, nnerr.ErrUnsupportedShape)
}

func TestTrainerLearnsFrameLabels(t *testing.T) {
	logger, _ := quietLogger()
	tr, err := trainer.New(newSoftmax(t), nil, trainer.DefaultConfig(), logger)
	require.NoError(t, err)

	data := samples(t)
	for range 300 {
		for _, s := range data {
			res, err := tr.Step(s.xs, s.transcript)
			require.NoError(t, err)
			assert.Positive(t, res.Loss)
			assert.Equal(t, editdist.Levenshtein(res.Predicted, s.transcript), res.Errors)
		}
	}
	assert.Equal(t, int64(300*len(data)), tr.Steps())

	for _, s := range data {
		got, err := tr.Predict(s.xs)
		require.NoError(t, err)
		assert.Equal(t, s.transcript, got)
	}
}

func TestTrainerAcceleratedScalesLoss(t *testing.T) {
	logger, _ := quietLogger()
	s := samples(t)[0]

	first, second := newSoftmax(t), newSoftmax(t)
	second.W.Copy(first.W)
	second.B.CopyVec(first.B)

	plain, err := trainer.New(first, nil, trainer.DefaultConfig(), logger)
	require.NoError(t, err)
	want, err := plain.Step(s.xs, s.transcript)
	require.NoError(t, err)

	cfg := trainer.DefaultConfig()
	cfg.Accelerated = true
	accel, err := trainer.New(second, nil, cfg, logger)
	require.NoError(t, err)
	got, err := accel.Step(s.xs, s.transcript)
	require.NoError(t, err)

	// Outputs of a fresh layer never exceed one, so dividing by them can
	// only grow the deltas.
	assert.Greater(t, got.Loss, want.Loss)
	assert.Equal(t, want.Predicted, got.Predicted)
}

func TestTrainerReportsErrorRate(t *testing.T) {
	logger, hook := quietLogger()
	cfg := trainer.DefaultConfig()
	cfg.ReportEvery = 2
	tr, err := trainer.New(newSoftmax(t), nil, cfg, logger)
	require.NoError(t, err)

	s := samples(t)[0]
	for range 5 {
		_, err := tr.Step(s.xs, s.transcript)
		require.NoError(t, err)
	}

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].Data["step"])
	assert.Equal(t, int64(4), entries[1].Data["step"])
	assert.Equal(t, 4, entries[1].Data["labels"])
	assert.Contains(t, entries[1].Data, "error_rate")
	assert.Equal(t, "training", entries[1].Message)
}

func TestTrainerSavesCheckpoints(t *testing.T) {
	logger, hook := quietLogger()
	dir := t.TempDir()
	cfg := trainer.DefaultConfig()
	cfg.ReportEvery = 0
	cfg.SaveEvery = 3
	cfg.SavePath = filepath.Join(dir, "net-%d.born")
	net := newSoftmax(t)
	tr, err := trainer.New(net, nil, cfg, logger)
	require.NoError(t, err)

	s := samples(t)[1]
	for range 3 {
		_, err := tr.Step(s.xs, s.transcript)
		require.NoError(t, err)
	}
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "checkpoint saved", hook.LastEntry().Message)

	restored := nn.NewSoftmax()
	require.NoError(t, restored.Init(3, 3))
	ckpt, err := nn.LoadCheckpoint(filepath.Join(dir, "net-3.born"), restored)
	require.NoError(t, err)
	assert.Equal(t, int64(3), ckpt.Step)
	assert.Equal(t, net.W.RawMatrix().Data, restored.W.RawMatrix().Data)
}

func TestTrainerText(t *testing.T) {
	logger, _ := quietLogger()
	net := newSoftmax(t)
	tr, err := trainer.New(net, nil, trainer.DefaultConfig(), logger)
	require.NoError(t, err)

	xs := frames(t, 0, 1, 0, 2, 0)
	_, err = tr.StepText(xs, "ab")
	assert.Error(t, err, "no codec attached")
	_, err = tr.PredictText(xs)
	assert.Error(t, err)

	net.Codec = codec.NewRuneCodec("ab")
	for range 300 {
		_, err := tr.StepText(xs, "ab")
		require.NoError(t, err)
	}
	text, err := tr.PredictText(xs)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)

	_, err = tr.StepText(xs, "z")
	assert.Error(t, err)
}

func TestStepRejectsBadTranscript(t *testing.T) {
	logger, _ := quietLogger()
	tr, err := trainer.New(newSoftmax(t), nil, trainer.DefaultConfig(), logger)
	require.NoError(t, err)

	_, err = tr.Step(frames(t, 0, 1, 0), seq.Classes{7})
	assert.ErrorIs(t, err, nnerr.ErrUnsupportedShape)

	_, err = tr.Step(seq.New(3, 5), seq.Classes{1})
	assert.ErrorIs(t, err, nnerr.ErrDimensionMismatch)

	assert.Zero(t, tr.Steps())
}
