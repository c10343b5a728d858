package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONLines(t *testing.T) {
	in := `{"product_id":"p1","product_title":"Fast Laptop","description":"16GB RAM"}

{"product_id":" p2 ","product_title":"Wireless Headphones"}
`
	ps, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "p1", ps[0].ID)
	assert.Equal(t, "16GB RAM", ps[0].Description)
	assert.Equal(t, "p2", ps[1].ID)
	assert.Equal(t, "Wireless Headphones", ps[1].Title)
}

func TestReadArray(t *testing.T) {
	in := `  [{"product_id":"p1","product_title":"Laptop"},{"product_id":"p2","product_title":"Phone"}]`
	ps, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Phone", ps[1].Title)
}

func TestReadEmpty(t *testing.T) {
	ps, err := Read(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.NotNil(t, ps)
	assert.Empty(t, ps)
}

func TestReadErrors(t *testing.T) {
	cases := map[string]string{
		"missing id":    `{"product_title":"Laptop"}`,
		"missing title": `{"product_id":"p1"}`,
		"bad json line": "{\"product_id\":\"p1\",\"product_title\":\"x\"}\n{oops",
		"bad array":     `[{"product_id":"p1"`,
		"array no id":   `[{"product_title":"Laptop"}]`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestReadReportsLine(t *testing.T) {
	in := "{\"product_id\":\"p1\",\"product_title\":\"x\"}\n{\"product_id\":\"p2\"}\n"
	_, err := Read(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "products.jsonl")
	require.NoError(t, os.WriteFile(p, []byte(`{"product_id":"p1","product_title":"Laptop"}`+"\n"), 0o644))
	ps, err := Load(p)
	require.NoError(t, err)
	assert.Len(t, ps, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
