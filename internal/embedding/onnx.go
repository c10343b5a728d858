package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"sentirec/internal/artifacts"
	"sentirec/internal/onnxenv"
	"sentirec/internal/tokenize"
)

// onnxMetadata optionally describes the exported graph.
type onnxMetadata struct {
	InputNames []string `json:"input_names"`
	OutputName string   `json:"output_name"`
}

type onnxEmbedder struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	inputs  map[string]*ort.Tensor[int64]
	hidden  *ort.Tensor[float32]
	tok     *tokenize.Tokenizer
	dim     int
	seqLen  int
	closed  bool
	log     zerolog.Logger
}

func newONNX(opts Options) (*onnxEmbedder, error) {
	set, err := artifacts.Resolve(opts.ModelPath, opts.TokenizerPath, "")
	if err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}
	meta := onnxMetadata{
		InputNames: []string{"input_ids", "attention_mask", "token_type_ids"},
		OutputName: "last_hidden_state",
	}
	if set.Metadata != "" {
		b, err := os.ReadFile(set.Metadata)
		if err != nil {
			return nil, fmt.Errorf("read embedding metadata: %w", err)
		}
		if err := json.Unmarshal(b, &meta); err != nil {
			return nil, fmt.Errorf("parse embedding metadata: %w", err)
		}
	}
	seqLen := opts.MaxSeqLen
	if seqLen <= 0 {
		seqLen = 128
	}
	tok, err := tokenize.Load(set.Tokenizer, seqLen)
	if err != nil {
		return nil, err
	}
	if err := onnxenv.Acquire(opts.RuntimeLib); err != nil {
		return nil, err
	}
	e := &onnxEmbedder{
		inputs: make(map[string]*ort.Tensor[int64]),
		tok:    tok,
		dim:    opts.Dimensions,
		seqLen: seqLen,
		log:    opts.Logger.With().Str("component", "embedder").Str("backend", "onnx").Logger(),
	}
	shape := ort.NewShape(1, int64(seqLen))
	ins := make([]ort.ArbitraryTensor, 0, len(meta.InputNames))
	for _, name := range meta.InputNames {
		t, err := ort.NewEmptyTensor[int64](shape)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to create input tensor %s: %w", name, err)
		}
		e.inputs[name] = t
		ins = append(ins, t)
	}
	e.hidden, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(opts.Dimensions)))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	e.session, err = ort.NewAdvancedSession(set.Model, meta.InputNames, []string{meta.OutputName},
		ins, []ort.ArbitraryTensor{e.hidden}, nil)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	e.log.Info().Str("model", set.Model).Int("dim", e.dim).Msg("embedder loaded")
	return e, nil
}

func (e *onnxEmbedder) Dimensions() int { return e.dim }
func (e *onnxEmbedder) Backend() string { return "onnx" }

func (e *onnxEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	en, err := e.tok.Encode(text)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.New("embedder closed")
	}
	for name, t := range e.inputs {
		switch name {
		case "input_ids":
			copy(t.GetData(), en.InputIDs)
		case "attention_mask":
			copy(t.GetData(), en.AttentionMask)
		case "token_type_ids":
			copy(t.GetData(), en.TokenTypeIDs)
		}
	}
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("embedding inference failed: %w", err)
	}
	return Normalize(MeanPool(e.hidden.GetData(), en.AttentionMask, e.seqLen, e.dim)), nil
}

func (e *onnxEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.EmbedQuery(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (e *onnxEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	for name, t := range e.inputs {
		t.Destroy()
		delete(e.inputs, name)
	}
	if e.hidden != nil {
		e.hidden.Destroy()
	}
	if e.session != nil {
		e.session.Destroy()
	}
	onnxenv.Release()
	return nil
}
