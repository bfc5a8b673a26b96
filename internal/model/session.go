package model

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	// ErrModelNotFound is returned when the checkpoint file does not exist.
	ErrModelNotFound = errors.New("model checkpoint not found")
	// ErrArchitecture is returned when the checkpoint does not have the
	// expected [1,3,224,224] -> [1,4] signature.
	ErrArchitecture = errors.New("model architecture mismatch")
)

// Runner executes one forward pass over a batched input and returns the raw
// output scores.
type Runner interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

// SessionOptions configures the ONNX runtime session.
type SessionOptions struct {
	// ModelPath is the exported checkpoint.
	ModelPath string
	// LibraryPath points to the onnxruntime shared library. Empty uses the
	// runtime's default lookup.
	LibraryPath string
	// IntraOpThreads and InterOpThreads are passed to the runtime; 0 lets it decide.
	IntraOpThreads int
	InterOpThreads int
	// Metadata supplies tensor names and shapes.
	Metadata Metadata
}

// Session is a Runner backed by an ONNX runtime session with preallocated,
// bound tensors.
type Session struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewSession loads the checkpoint and checks its signature before any tensor
// is allocated.
func NewSession(opts SessionOptions) (*Session, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrModelNotFound, "%s", opts.ModelPath)
		}
		return nil, errors.Wrapf(err, "failed to stat model %s", opts.ModelPath)
	}

	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "failed to initialize ONNX environment")
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, errors.Wrapf(ErrArchitecture, "failed to read model signature: %v", err)
	}
	input, output, err := resolveSignature(opts.Metadata, inputs, outputs)
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(concreteShape(input.Dimensions)...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(concreteShape(output.Dimensions)...))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "failed to create output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
		return nil, destroyOnError(err, inputTensor, outputTensor)
	}
	if err := options.SetInterOpNumThreads(opts.InterOpThreads); err != nil {
		return nil, destroyOnError(err, inputTensor, outputTensor)
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return nil, destroyOnError(err, inputTensor, outputTensor)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{input.Name}, []string{output.Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		return nil, destroyOnError(errors.Wrapf(ErrArchitecture, "failed to create ONNX session: %v", err),
			inputTensor, outputTensor)
	}

	return &Session{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Run copies input into the bound tensor, runs the graph and returns a copy of
// the output. Calls are serialized because the bound tensors are shared.
func (s *Session) Run(input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, errors.Errorf("input has %d values, model expects %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	out := s.outputTensor.GetData()
	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

// Close releases the session, its tensors and the runtime environment.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return errors.Wrap(err, "failed to destroy ONNX session")
		}
		s.session = nil
	}
	return ort.DestroyEnvironment()
}

func destroyOnError(err error, tensors ...*ort.Tensor[float32]) error {
	for _, t := range tensors {
		t.Destroy()
	}
	return err
}

// resolveSignature picks the input and output the session binds and verifies
// they have the shapes of a 224px RGB classifier with NumClasses outputs.
func resolveSignature(md Metadata, inputs, outputs []ort.InputOutputInfo) (ort.InputOutputInfo, ort.InputOutputInfo, error) {
	var none ort.InputOutputInfo

	input, ok := pickInfo(inputs, md.InputName)
	if !ok {
		return none, none, errors.Wrapf(ErrArchitecture, "no input named %q among %d inputs", md.InputName, len(inputs))
	}
	output, ok := pickInfo(outputs, md.OutputName)
	if !ok {
		return none, none, errors.Wrapf(ErrArchitecture, "no output named %q among %d outputs", md.OutputName, len(outputs))
	}

	if input.DataType != ort.TensorElementDataTypeFloat || output.DataType != ort.TensorElementDataTypeFloat {
		return none, none, errors.Wrap(ErrArchitecture, "input and output must be float32")
	}
	if err := checkInputShape(input.Dimensions); err != nil {
		return none, none, err
	}
	if err := checkOutputShape(output.Dimensions); err != nil {
		return none, none, err
	}
	return input, output, nil
}

func pickInfo(infos []ort.InputOutputInfo, name string) (ort.InputOutputInfo, bool) {
	if name == "" {
		if len(infos) == 1 {
			return infos[0], true
		}
		return ort.InputOutputInfo{}, false
	}
	for _, info := range infos {
		if info.Name == name {
			return info, true
		}
	}
	return ort.InputOutputInfo{}, false
}

func checkInputShape(dims ort.Shape) error {
	want := []int64{1, 3, 224, 224}
	if len(dims) != len(want) {
		return errors.Wrapf(ErrArchitecture, "input shape %v, want %v", dims, want)
	}
	for i, d := range dims {
		// Only the batch dimension may be dynamic.
		if i == 0 && d < 0 {
			continue
		}
		if d != want[i] {
			return errors.Wrapf(ErrArchitecture, "input shape %v, want %v", dims, want)
		}
	}
	return nil
}

func checkOutputShape(dims ort.Shape) error {
	n := len(dims)
	if n == 0 || dims[n-1] != NumClasses {
		return errors.Wrapf(ErrArchitecture, "output shape %v, want last dimension %d", dims, NumClasses)
	}
	for _, d := range dims[:n-1] {
		if d > 1 {
			return errors.Wrapf(ErrArchitecture, "output shape %v has batch larger than 1", dims)
		}
	}
	return nil
}

// concreteShape pins dynamic dimensions to 1.
func concreteShape(dims ort.Shape) []int64 {
	out := make([]int64, len(dims))
	for i, d := range dims {
		if d < 1 {
			d = 1
		}
		out[i] = d
	}
	return out
}
