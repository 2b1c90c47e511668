package nn

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Info logs the structure of a network tree: one entry per node with its
// kind, widths and learning parameters, then one entry per parameter with
// its shape and norms. A nil logger logs to logrus.StandardLogger().
func Info(net Network, logger *logrus.Logger) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	for path, n := range Networks(net, "") {
		b := n.Core()
		logger.WithFields(logrus.Fields{
			"network":  path,
			"kind":     n.Kind().String(),
			"ninput":   n.NInput(),
			"noutput":  n.NOutput(),
			"lr":       b.LR,
			"momentum": b.Momentum,
			"children": len(b.Sub),
		}).Info("network")
	}
	for name, p := range Weights(net, "") {
		logger.WithFields(logrus.Fields{
			"param": name,
			"shape": p.Shape(),
			"norm":  floats.Norm(p.Values(), 2),
			"dnorm": floats.Norm(p.Grads(), 2),
		}).Debug("parameter")
	}
}
