// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim updates network parameters from accumulated gradients.
//
// # Basic Usage
//
//	opt := optim.NewSGD(optim.SGDConfig{})
//	net.SetLearningRate(1e-4, 0.9)
//	for _, s := range samples {
//	    if err := nn.CTrain(net, s.Inputs, s.Classes); err != nil {
//	        return err
//	    }
//	    opt.Step(net)
//	}
//
// Each node is updated with its own learning rate and momentum.
package optim

import (
	"github.com/born-ml/seqnet/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD is gradient descent with per-node learning rate and momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD { return optim.NewSGD(config) }
