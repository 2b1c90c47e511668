package nn

// MLP is a stack of tanh hidden layers topped by a sigmoid output layer.
type MLP struct {
	Stacked
}

// NewMLP returns an un-initialized perceptron.
func NewMLP() *MLP {
	return &MLP{Stacked: Stacked{Base: newBase(KindMLP)}}
}

// Init builds the layers. It accepts (no, nh, ni) for one hidden layer and
// (no, nh2, nh, ni) for two.
func (m *MLP) Init(sizes ...int) error {
	switch len(sizes) {
	case 3:
		no, nh, ni := sizes[0], sizes[1], sizes[2]
		return m.build(
			sized(NewTanh(), nh, ni),
			sized(NewLogreg(), no, nh),
		)
	case 4:
		no, nh2, nh, ni := sizes[0], sizes[1], sizes[2], sizes[3]
		return m.build(
			sized(NewTanh(), nh, ni),
			sized(NewTanh(), nh2, nh),
			sized(NewLogreg(), no, nh2),
		)
	default:
		return m.Base.Init(sizes...)
	}
}

// sizedLayer is a child together with the sizes to Init it with. A nil
// sizes means the child is already initialized.
type sizedLayer struct {
	net   Network
	sizes []int
}

func sized(net Network, sizes ...int) sizedLayer {
	return sizedLayer{net: net, sizes: sizes}
}

// build replaces the children with the given layers, initialized in order.
// Children inherit the stack's learning rate and momentum.
func (s *Stacked) build(layers ...sizedLayer) error {
	s.Sub = nil
	for _, l := range layers {
		if l.sizes != nil {
			if err := l.net.Init(l.sizes...); err != nil {
				return err
			}
		}
		if err := s.Add(l.net); err != nil {
			return err
		}
	}
	s.SetLearningRate(s.LR, s.Momentum)
	return nil
}
