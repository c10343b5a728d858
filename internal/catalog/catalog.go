// Package catalog reads product catalogues and indexes them into a vector store.
package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"sentirec/internal/common/fsutil"
	"sentirec/pkg/types"
)

// maxLine bounds a single JSON Lines record.
const maxLine = 4 << 20

// Load reads the catalogue at path. See Read for the accepted formats.
func Load(path string) ([]types.Product, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	products, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", p, err)
	}
	return products, nil
}

// Read decodes a JSON array of products or JSON Lines, one product per line.
// Blank lines are skipped. Every product needs a product_id and a product_title.
func Read(r io.Reader) ([]types.Product, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return []types.Product{}, nil
	}
	if err != nil {
		return nil, err
	}
	var products []types.Product
	if first == '[' {
		if err := json.NewDecoder(br).Decode(&products); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		for i := range products {
			if err := check(&products[i]); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
	} else {
		sc := bufio.NewScanner(br)
		sc.Buffer(make([]byte, 0, 64*1024), maxLine)
		line := 0
		for sc.Scan() {
			line++
			b := bytes.TrimSpace(sc.Bytes())
			if len(b) == 0 {
				continue
			}
			var p types.Product
			if err := json.Unmarshal(b, &p); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if err := check(&p); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			products = append(products, p)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}
	if products == nil {
		products = []types.Product{}
	}
	return products, nil
}

func check(p *types.Product) error {
	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	if p.ID == "" {
		return errors.New("product_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("product %s: product_title is required", p.ID)
	}
	return nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
