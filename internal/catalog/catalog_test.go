package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/premium-shop/internal/model"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	products := c.List()
	require.NotEmpty(t, products)

	p, ok := c.BySlug("chatgpt-plus-1-thang-tai-khoan-chinh-chu")
	require.True(t, ok)
	assert.Equal(t, "chatgpt-plus", p.ID)
	assert.Equal(t, int64(390000), p.Price)
	require.NotNil(t, p.OriginalPrice)
	assert.Equal(t, int64(500000), *p.OriginalPrice)
	assert.Equal(t, model.ProductInStock, p.Status)

	byID, ok := c.ByID("netflix-1m")
	require.True(t, ok)
	assert.Equal(t, "netflix-1m", byID.Slug)

	_, ok = c.BySlug("missing")
	assert.False(t, ok)
}

func TestList_ReturnsCopy(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	list := c.List()
	list[0].Name = "changed"

	assert.NotEqual(t, "changed", c.List()[0].Name)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"duplicate id", "- {id: a, slug: a}\n- {id: a, slug: b}\n"},
		{"duplicate slug", "- {id: a, slug: s}\n- {id: b, slug: s}\n"},
		{"missing slug", "- {id: a}\n"},
		{"negative price", "- {id: a, slug: a, price: -1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}

	_, err := Parse([]byte("not: [a list"))
	assert.Error(t, err)
}

func TestParse_DefaultStatus(t *testing.T) {
	c, err := Parse([]byte("- {id: a, slug: a, price: 10}\n- {id: b, slug: b, price: 10, status: out_of_stock}\n"))
	require.NoError(t, err)

	a, _ := c.ByID("a")
	b, _ := c.ByID("b")
	assert.True(t, a.InStock())
	assert.False(t, b.InStock())
}

func TestSearch(t *testing.T) {
	c, err := Parse([]byte(`
- {id: gpt, slug: gpt, name: ChatGPT Plus, category: AI, tags: [openai]}
- {id: yt, slug: yt, name: YouTube Premium, category: Entertainment, tags: [music, video]}
- {id: sp, slug: sp, name: Spotify, category: Music, tags: [music]}
`))
	require.NoError(t, err)

	ids := func(ps []model.Product) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []string{"gpt"}, ids(c.Search("chatgpt", "")))
	assert.Equal(t, []string{"gpt"}, ids(c.Search("OPENAI", "")))
	assert.Equal(t, []string{"yt", "sp"}, ids(c.Search("music", "")))
	assert.Equal(t, []string{"sp"}, ids(c.Search("music", "music")))
	assert.Equal(t, []string{"gpt", "yt", "sp"}, ids(c.Search("  ", "")))
	assert.Empty(t, c.Search("netflix", ""))

	assert.Equal(t, []string{"AI", "Entertainment", "Music"}, c.Categories())
}

func TestFormatVND(t *testing.T) {
	s := FormatVND(390000)
	assert.True(t, strings.HasSuffix(s, "₫"), s)
	assert.True(t, strings.HasPrefix(s, "390"), s)
}
