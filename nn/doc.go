// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides recurrent and feedforward sequence network nodes.
//
// # Overview
//
// This package contains:
//   - Full layers: Linear, Logreg, Tanh, Relu, Softmax
//   - Composition: Stacked, Reversed, Parallel, MLP
//   - Recurrent: LSTM, LSTM1, RevLSTM1, BidiLSTM
//   - Iteration: Weights, States, Networks with dotted hierarchical names
//   - Training: Train, CTrain, CTCTrain, CPred
//   - Persistence: Save, Load, Checkpoint, ExportSafeTensors, LoadConfig
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/seqnet/ctc"
//	    "github.com/born-ml/seqnet/nn"
//	    "github.com/born-ml/seqnet/optim"
//	)
//
//	func main() {
//	    net := nn.NewBidiLSTM()
//	    if err := net.Init(nclasses, 100, nfeatures); err != nil {
//	        log.Fatal(err)
//	    }
//	    opt := optim.NewSGD(optim.SGDConfig{})
//
//	    for _, s := range samples {
//	        if _, err := nn.CTCTrain(net, s.Inputs, s.Transcript, nil); err != nil {
//	            log.Fatal(err)
//	        }
//	        opt.Step(net)
//	    }
//	}
//
// # Gradients
//
// Backward consumes d_outputs = targets - outputs and accumulates parameter
// gradients until they are cleared, so optimizers add them to the values.
//
// # Errors
//
// Operations report misuse through three error kinds matched with errors.Is:
// ErrUnimplemented, ErrUnsupportedShape and ErrDimensionMismatch.
package nn
