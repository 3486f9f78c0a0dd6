package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/John-Robertt/AFO/internal/domain"
	"github.com/John-Robertt/AFO/internal/infra/cache"
)

type stubGen struct {
	reply string
	err   error
	got   []Prompt
}

func (s *stubGen) Generate(_ context.Context, p Prompt) (string, error) {
	s.got = append(s.got, p)
	return s.reply, s.err
}

func records(n int) []domain.FileRecord {
	out := make([]domain.FileRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.FileRecord{
			Name:     "f" + string(rune('a'+i)) + ".pdf",
			Type:     "application/pdf",
			Size:     int64(100 + i),
			Modified: time.Unix(0, 0),
		})
	}
	return out
}

func TestGenerateCategories_Parses(t *testing.T) {
	gen := &stubGen{reply: "```json\n{\"categories\":[\"Work\",\" \"],\"files\":{\"fa.pdf\":\"Work\",\"\":\"x\"}}\n```"}
	c := New(gen, zaptest.NewLogger(t))

	m, err := c.GenerateCategories(context.Background(), records(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"Work"}, m.Categories)
	assert.Equal(t, map[string]string{"fa.pdf": "Work"}, m.Files)

	require.Len(t, gen.got, 1)
	assert.True(t, gen.got[0].JSON)
	assert.Contains(t, gen.got[0].User, "fa.pdf (Type: application/pdf, Size: 100 bytes)")
	assert.Contains(t, gen.got[0].User, "'categories'")
}

func TestGenerateCategories_CapsFiles(t *testing.T) {
	gen := &stubGen{reply: `{"categories":[],"files":{}}`}
	c := New(gen, nil)

	_, err := c.GenerateCategories(context.Background(), records(25))
	require.NoError(t, err)
	assert.Equal(t, MaxCategorizeFiles, strings.Count(gen.got[0].User, "(Type:"))
}

func TestGenerateCategories_Errors(t *testing.T) {
	c := New(&stubGen{err: errors.New("quota")}, nil)
	_, err := c.GenerateCategories(context.Background(), records(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")

	c = New(&stubGen{reply: "sorry, I cannot"}, nil)
	_, err = c.GenerateCategories(context.Background(), records(1))
	assert.Error(t, err)

	c = New(&stubGen{reply: "  "}, nil)
	_, err = c.GenerateCategories(context.Background(), records(1))
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestGetSuggestions(t *testing.T) {
	gen := &stubGen{reply: "- Group invoices by year\n\n  - Archive old installers  \n"}
	c := New(gen, nil)

	got, err := c.GetSuggestions(context.Background(), records(8), "/dst")
	require.NoError(t, err)
	assert.Equal(t, []string{"- Group invoices by year", "- Archive old installers"}, got)

	require.Len(t, gen.got, 1)
	assert.False(t, gen.got[0].JSON)
	assert.Contains(t, gen.got[0].User, "into /dst")
	assert.Equal(t, MaxSuggestFiles, strings.Count(gen.got[0].User, "(Type:"))
}

func TestGetSuggestions_EmptyReply(t *testing.T) {
	c := New(&stubGen{reply: "\n \n"}, nil)
	_, err := c.GetSuggestions(context.Background(), records(1), "/dst")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestNilClient(t *testing.T) {
	var c *Client
	_, err := c.GenerateCategories(context.Background(), nil)
	assert.Error(t, err)
	_, err = c.GetSuggestions(context.Background(), nil, "/d")
	assert.Error(t, err)
}

func TestNewGemini_RequiresKeyAndModel(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiOptions{Model: "gemini-2.0-flash"})
	assert.Error(t, err)
	_, err = NewGemini(context.Background(), GeminiOptions{APIKey: "k"})
	assert.Error(t, err)
}

func TestCache_HitSkipsGenerator(t *testing.T) {
	store := cache.New(afero.NewMemMapFs(), "/cache")
	gen := &stubGen{reply: `{"categories":["Work"],"files":{"fa.pdf":"Work"}}`}
	c := New(gen, zaptest.NewLogger(t)).WithCache(store, "gemini-2.0-flash")

	first, err := c.GenerateCategories(context.Background(), records(2))
	require.NoError(t, err)
	second, err := c.GenerateCategories(context.Background(), records(2))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, gen.got, 1, "第二次应命中缓存")

	// 换 scope（模型）后缓存键不同。
	other := New(gen, nil).WithCache(store, "gemini-pro")
	_, err = other.GenerateCategories(context.Background(), records(2))
	require.NoError(t, err)
	assert.Len(t, gen.got, 2)
}

func TestCache_BadReplyNotStored(t *testing.T) {
	store := cache.New(afero.NewMemMapFs(), "/cache")
	gen := &stubGen{reply: "\n"}
	c := New(gen, nil).WithCache(store, "m")

	_, err := c.GetSuggestions(context.Background(), records(1), "/dst")
	require.ErrorIs(t, err, ErrEmptyReply)

	gen.reply = "- keep it tidy"
	got, err := c.GetSuggestions(context.Background(), records(1), "/dst")
	require.NoError(t, err)
	assert.Equal(t, []string{"- keep it tidy"}, got)
	assert.Len(t, gen.got, 2)

	_, err = c.GetSuggestions(context.Background(), records(1), "/dst")
	require.NoError(t, err)
	assert.Len(t, gen.got, 2)
}
