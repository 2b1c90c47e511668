// Package trainer runs CTC training steps on a network.
//
// Each step runs the network forward, aligns its posteriors with the
// transcript, injects the aligned targets as output deltas, propagates them
// back and lets the optimizer update the weights. The greedy decoding of
// the same forward pass is scored against the transcript so that training
// can be monitored without a separate evaluation pass.
package trainer

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/seqnet/internal/ctc"
	"github.com/born-ml/seqnet/internal/editdist"
	"github.com/born-ml/seqnet/internal/nn"
	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/optim"
	"github.com/born-ml/seqnet/internal/seq"
)

// Config controls a Trainer.
type Config struct {
	// ReportEvery logs the running error rate every so many steps. Zero
	// disables reporting.
	ReportEvery int

	// Accelerated divides each step's output delta by the probability of
	// its target class, floored at Floor. It cannot be combined with a
	// softmax that is itself accelerated.
	Accelerated bool
	Floor       float64

	// Skip is the log penalty for skipping a target position during
	// alignment.
	Skip float64

	// SaveEvery writes a checkpoint to SavePath every so many steps. Zero
	// disables saving. SavePath may contain one %d verb for the step.
	SaveEvery int
	SavePath  string
}

// DefaultConfig reports every 100 steps with the default floor and skip.
func DefaultConfig() Config {
	return Config{
		ReportEvery: 100,
		Floor:       nn.DefaultSoftmaxFloor,
		Skip:        ctc.DefaultSkip,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	const op = "trainer.Config"
	switch {
	case c.ReportEvery < 0:
		return nnerr.Shapef(op, "report interval must not be negative, got %d", c.ReportEvery)
	case c.Floor <= 0 || c.Floor >= 1:
		return nnerr.Shapef(op, "floor must be in (0, 1), got %g", c.Floor)
	case c.Skip >= 0:
		return nnerr.Shapef(op, "skip must be a negative log penalty, got %g", c.Skip)
	case c.SaveEvery < 0:
		return nnerr.Shapef(op, "save interval must not be negative, got %d", c.SaveEvery)
	case c.SaveEvery > 0 && c.SavePath == "":
		return nnerr.Shapef(op, "save interval set without a save path")
	}
	return nil
}

// Result describes one training step.
type Result struct {
	// Loss is half the squared norm of the injected output deltas.
	Loss float64
	// Predicted is the greedy CTC decoding of the step's outputs.
	Predicted seq.Classes
	// Errors is the edit distance between Predicted and the transcript.
	Errors int
}

// Trainer trains one network. It is not safe for concurrent use.
type Trainer struct {
	net     nn.Network
	opt     optim.Optimizer
	config  Config
	aligner *ctc.Aligner
	logger  *logrus.Logger

	step int64

	// running totals since the last report
	loss   float64
	errors int
	labels int
	count  int
}

// New creates a trainer. A nil optimizer uses SGD with the learning rates
// stored on the network; a nil logger uses logrus.StandardLogger().
func New(net nn.Network, opt optim.Optimizer, config Config, logger *logrus.Logger) (*Trainer, error) {
	if net == nil {
		return nil, errors.New("trainer needs a network")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Accelerated {
		for path, n := range nn.Networks(net, "") {
			if sm, ok := n.(*nn.Softmax); ok && sm.Config.Accelerated {
				return nil, nnerr.Shapef("trainer.New", "%s already scales its deltas; accelerated targets would scale them twice", path)
			}
		}
	}
	if opt == nil {
		opt = optim.NewSGD(optim.SGDConfig{})
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	opt.ZeroGrad(net)
	return &Trainer{
		net:     net,
		opt:     opt,
		config:  config,
		aligner: &ctc.Aligner{Skip: config.Skip, Floor: config.Floor},
		logger:  logger,
	}, nil
}

// Steps returns the number of completed training steps.
func (t *Trainer) Steps() int64 { return t.step }

// Step trains on one input sequence and its transcript.
func (t *Trainer) Step(xs seq.Sequence, transcript seq.Classes) (Result, error) {
	nn.SetInputs(t.net, xs)
	if err := t.net.Forward(); err != nil {
		return Result{}, err
	}
	outputs := t.net.Core().Outputs

	aligned, err := t.aligner.AlignClasses(outputs, transcript)
	if err != nil {
		return Result{}, err
	}
	if t.config.Accelerated {
		err = nn.SetTargetsAccelerated(t.net, aligned, t.config.Floor)
	} else {
		err = nn.SetTargets(t.net, aligned)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{Loss: nn.Loss(t.net)}
	res.Predicted = ctc.Collapse(outputs.Argmax())
	res.Errors = editdist.Levenshtein(res.Predicted, transcript)

	if err := t.net.Backward(); err != nil {
		return Result{}, err
	}
	t.opt.Step(t.net)

	t.step++
	t.loss += res.Loss
	t.errors += res.Errors
	t.labels += len(transcript)
	t.count++

	if every := t.config.ReportEvery; every > 0 && t.step%int64(every) == 0 {
		t.report()
	}
	if every := t.config.SaveEvery; every > 0 && t.step%int64(every) == 0 {
		if err := t.save(res.Loss); err != nil {
			return res, err
		}
	}
	return res, nil
}

// StepText trains on a text transcript encoded with the network's codec.
func (t *Trainer) StepText(xs seq.Sequence, text string) (Result, error) {
	cdc := t.net.Core().Codec
	if cdc == nil {
		return Result{}, errors.New("network has no codec")
	}
	transcript, err := cdc.Encode(text)
	if err != nil {
		return Result{}, err
	}
	return t.Step(xs, transcript)
}

// Predict returns the greedy CTC decoding of the network's outputs for xs.
func (t *Trainer) Predict(xs seq.Sequence) (seq.Classes, error) {
	preds, err := nn.CPred(t.net, xs)
	if err != nil {
		return nil, err
	}
	return ctc.Collapse(preds), nil
}

// PredictText decodes the prediction for xs with the network's codec.
func (t *Trainer) PredictText(xs seq.Sequence) (string, error) {
	cdc := t.net.Core().Codec
	if cdc == nil {
		return "", errors.New("network has no codec")
	}
	classes, err := t.Predict(xs)
	if err != nil {
		return "", err
	}
	return cdc.Decode(classes)
}

func (t *Trainer) report() {
	t.logger.WithFields(logrus.Fields{
		"step":       t.step,
		"loss":       t.loss / float64(t.count),
		"errors":     t.errors,
		"labels":     t.labels,
		"error_rate": float64(t.errors) / float64(max(1, t.labels)),
	}).Info("training")
	t.loss, t.errors, t.labels, t.count = 0, 0, 0, 0
}

func (t *Trainer) save(loss float64) error {
	path := t.config.SavePath
	if strings.Contains(path, "%d") {
		path = fmt.Sprintf(path, t.step)
	}
	ckpt := &nn.Checkpoint{Net: t.net, Step: t.step, Loss: loss}
	if err := ckpt.Save(path); err != nil {
		return err
	}
	t.logger.WithFields(logrus.Fields{"step": t.step, "path": path}).Info("checkpoint saved")
	return nil
}
