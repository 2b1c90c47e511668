package nn

// LSTMStack is an LSTM layer (plain, time-reversed or bidirectional)
// followed by a Softmax output layer. It is the usual shape of a sequence
// recognizer trained with CTC alignment.
type LSTMStack struct {
	Stacked

	// LSTM and Softmax configure the layers built by Init.
	LSTM    LSTMConfig
	Softmax SoftmaxConfig
}

// NewLSTM1 returns an un-initialized LSTM + Softmax stack.
func NewLSTM1() *LSTMStack { return newLSTMStack(KindLSTM1) }

// NewRevLSTM1 returns an un-initialized Reversed(LSTM) + Softmax stack.
func NewRevLSTM1() *LSTMStack { return newLSTMStack(KindRevLSTM1) }

// NewBidiLSTM returns an un-initialized Parallel(LSTM, Reversed(LSTM)) +
// Softmax stack.
func NewBidiLSTM() *LSTMStack { return newLSTMStack(KindBidiLSTM) }

func newLSTMStack(kind Kind) *LSTMStack {
	return &LSTMStack{
		Stacked: Stacked{Base: newBase(kind)},
		Softmax: DefaultSoftmaxConfig(),
	}
}

// Init builds the layers. It takes exactly (no, nh, ni): nh hidden units
// per direction, no output classes, ni input features.
func (s *LSTMStack) Init(sizes ...int) error {
	if len(sizes) != 3 {
		return s.Base.Init(sizes...)
	}
	no, nh, ni := sizes[0], sizes[1], sizes[2]

	var recurrent Network
	nsoftmax := nh
	switch s.Kind() {
	case KindLSTM1:
		lstm, err := s.newLSTM(nh, ni)
		if err != nil {
			return err
		}
		recurrent = lstm
	case KindRevLSTM1:
		rev, err := s.newReversedLSTM(nh, ni)
		if err != nil {
			return err
		}
		recurrent = rev
	default:
		fwd, err := s.newLSTM(nh, ni)
		if err != nil {
			return err
		}
		rev, err := s.newReversedLSTM(nh, ni)
		if err != nil {
			return err
		}
		par := NewParallel()
		if err := par.Add(fwd); err != nil {
			return err
		}
		if err := par.Add(rev); err != nil {
			return err
		}
		recurrent = par
		nsoftmax = 2 * nh
	}

	softmax := NewSoftmax()
	softmax.Config = s.Softmax
	return s.build(sized(recurrent), sized(softmax, no, nsoftmax))
}

func (s *LSTMStack) newLSTM(no, ni int) (*LSTM, error) {
	lstm := NewLSTM()
	lstm.Config = s.LSTM
	if err := lstm.Init(no, ni); err != nil {
		return nil, err
	}
	return lstm, nil
}

func (s *LSTMStack) newReversedLSTM(no, ni int) (*Reversed, error) {
	lstm, err := s.newLSTM(no, ni)
	if err != nil {
		return nil, err
	}
	rev := NewReversed()
	if err := rev.Add(lstm); err != nil {
		return nil, err
	}
	return rev, nil
}
