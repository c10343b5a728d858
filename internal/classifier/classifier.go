// Package classifier runs a binary sentiment model exported to ONNX.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"sentirec/internal/onnxenv"
	"sentirec/internal/tokenize"
	"sentirec/pkg/types"
)

// Metadata optionally ships next to the model as model_metadata.json.
type Metadata struct {
	Labels     []string `json:"labels"`
	MaxLength  int      `json:"max_length"`
	InputNames []string `json:"input_names"`
	OutputName string   `json:"output_name"`
	// OutputSize is the number of logits; 1 means a single sigmoid logit.
	OutputSize int `json:"output_size"`
}

// Encoder is the tokenizer surface the classifier needs.
type Encoder interface {
	Encode(text string) (tokenize.Encoded, error)
	MaxLen() int
}

// Options configures New. Metadata values override Labels when present.
type Options struct {
	ModelPath    string
	MetadataPath string
	RuntimeLib   string
	Labels       []string
	Logger       zerolog.Logger
}

// Classifier owns one ONNX session with preallocated tensors. Calls are
// serialized because the tensors are shared.
type Classifier struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	inputs  map[string]*ort.Tensor[int64]
	output  *ort.Tensor[float32]
	enc     Encoder
	meta    Metadata
	log     zerolog.Logger
	closed  bool
}

const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

// ReadMetadata parses a metadata file and fills defaults.
func ReadMetadata(path string, labels []string) (Metadata, error) {
	var meta Metadata
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return meta, fmt.Errorf("failed to read metadata: %w", err)
		}
		if err := json.Unmarshal(b, &meta); err != nil {
			return meta, fmt.Errorf("failed to parse metadata: %w", err)
		}
	}
	if len(meta.Labels) == 0 {
		meta.Labels = append([]string(nil), labels...)
	}
	if len(meta.Labels) == 0 {
		meta.Labels = []string{types.LabelNegative, types.LabelPositive}
	}
	for i, l := range meta.Labels {
		n := NormalizeLabel(l)
		if n != types.LabelPositive && n != types.LabelNegative {
			return meta, fmt.Errorf("unsupported label %q (want positive/negative)", l)
		}
		meta.Labels[i] = n
	}
	if len(meta.InputNames) == 0 {
		meta.InputNames = []string{inputIDs, attentionMask}
	}
	for _, n := range meta.InputNames {
		switch n {
		case inputIDs, attentionMask, tokenTypeIDs:
		default:
			return meta, fmt.Errorf("unsupported model input %q", n)
		}
	}
	if meta.OutputName == "" {
		meta.OutputName = "logits"
	}
	if meta.OutputSize <= 0 {
		meta.OutputSize = len(meta.Labels)
	}
	return meta, nil
}

// New loads the model. The encoder's MaxLen fixes the input shape.
func New(opts Options, enc Encoder) (*Classifier, error) {
	if enc == nil {
		return nil, errors.New("classifier: nil tokenizer")
	}
	meta, err := ReadMetadata(opts.MetadataPath, opts.Labels)
	if err != nil {
		return nil, err
	}
	if err := onnxenv.Acquire(opts.RuntimeLib); err != nil {
		return nil, err
	}
	c := &Classifier{
		inputs: make(map[string]*ort.Tensor[int64], len(meta.InputNames)),
		enc:    enc,
		meta:   meta,
		log:    opts.Logger.With().Str("component", "classifier").Logger(),
	}
	inShape := ort.NewShape(1, int64(enc.MaxLen()))
	ins := make([]ort.ArbitraryTensor, 0, len(meta.InputNames))
	for _, name := range meta.InputNames {
		t, err := ort.NewEmptyTensor[int64](inShape)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create input tensor %s: %w", name, err)
		}
		c.inputs[name] = t
		ins = append(ins, t)
	}
	c.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(meta.OutputSize)))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	c.session, err = ort.NewAdvancedSession(opts.ModelPath,
		meta.InputNames, []string{meta.OutputName},
		ins, []ort.ArbitraryTensor{c.output},
		nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	c.log.Info().Str("model", opts.ModelPath).Strs("labels", meta.Labels).Int("max_len", enc.MaxLen()).Msg("classifier loaded")
	return c, nil
}

// Labels returns the normalized label order of the model outputs.
func (c *Classifier) Labels() []string { return append([]string(nil), c.meta.Labels...) }

// Predict classifies text.
func (c *Classifier) Predict(ctx context.Context, text string) (types.Prediction, error) {
	en, err := c.enc.Encode(text)
	if err != nil {
		return types.Prediction{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.Prediction{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return types.Prediction{}, errors.New("classifier closed")
	}
	for name, t := range c.inputs {
		switch name {
		case inputIDs:
			copy(t.GetData(), en.InputIDs)
		case attentionMask:
			copy(t.GetData(), en.AttentionMask)
		case tokenTypeIDs:
			copy(t.GetData(), en.TokenTypeIDs)
		}
	}
	if err := c.session.Run(); err != nil {
		return types.Prediction{}, fmt.Errorf("inference failed: %w", err)
	}
	logits := append([]float32(nil), c.output.GetData()...)
	p, err := Decide(logits, c.meta.Labels)
	if err != nil {
		return p, err
	}
	c.log.Debug().Str("label", p.Label).Float64("confidence", p.Confidence).Int("tokens", en.Length).Msg("predict")
	return p, nil
}

// Close releases the session and tensors.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for name, t := range c.inputs {
		t.Destroy()
		delete(c.inputs, name)
	}
	if c.output != nil {
		c.output.Destroy()
		c.output = nil
	}
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	onnxenv.Release()
	return nil
}
