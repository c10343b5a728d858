// Package tokenize turns text into fixed-length model inputs using a
// Hugging Face tokenizer.json.
package tokenize

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Encoded holds padded model inputs of length MaxLen.
type Encoded struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
	// Length is the number of real (non-padding) tokens.
	Length int
}

// Tokenizer is safe for concurrent use.
type Tokenizer struct {
	mu     sync.Mutex
	tk     *tokenizer.Tokenizer
	maxLen int
	padID  int
}

var padTokens = []string{"[PAD]", "<pad>", "<|pad|>"}

// Load reads a tokenizer.json file.
func Load(path string, maxLen int) (*Tokenizer, error) {
	if maxLen <= 1 {
		return nil, fmt.Errorf("max length must be > 1, got %d", maxLen)
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	t := &Tokenizer{tk: tk, maxLen: maxLen}
	for _, p := range padTokens {
		if id, ok := tk.TokenToId(p); ok {
			t.padID = id
			break
		}
	}
	return t, nil
}

// MaxLen returns the fixed sequence length produced by Encode.
func (t *Tokenizer) MaxLen() int { return t.maxLen }

// Encode tokenizes text with special tokens and pads/truncates to MaxLen.
func (t *Tokenizer) Encode(text string) (Encoded, error) {
	t.mu.Lock()
	en, err := t.tk.EncodeSingle(text, true)
	t.mu.Unlock()
	if err != nil {
		return Encoded{}, fmt.Errorf("encode: %w", err)
	}
	if en == nil || len(en.Ids) == 0 {
		return Encoded{}, errors.New("encode: tokenizer produced no tokens")
	}
	keepLast := len(en.SpecialTokenMask) == len(en.Ids) && en.SpecialTokenMask[len(en.Ids)-1] == 1
	return Fit(en.Ids, en.TypeIds, t.maxLen, t.padID, keepLast), nil
}

// Fit truncates or right-pads token ids to maxLen. When keepLast is set and
// truncation happens, the final token (usually [SEP] or </s>) is preserved.
func Fit(ids, typeIDs []int, maxLen, padID int, keepLast bool) Encoded {
	out := Encoded{
		InputIDs:      make([]int64, maxLen),
		AttentionMask: make([]int64, maxLen),
		TokenTypeIDs:  make([]int64, maxLen),
	}
	n := len(ids)
	if n > maxLen {
		n = maxLen
	}
	for i := 0; i < n; i++ {
		out.InputIDs[i] = int64(ids[i])
		out.AttentionMask[i] = 1
		if i < len(typeIDs) {
			out.TokenTypeIDs[i] = int64(typeIDs[i])
		}
	}
	if len(ids) > maxLen && keepLast {
		out.InputIDs[maxLen-1] = int64(ids[len(ids)-1])
	}
	for i := n; i < maxLen; i++ {
		out.InputIDs[i] = int64(padID)
	}
	out.Length = n
	return out
}
