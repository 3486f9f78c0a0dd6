package planner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/AFO/internal/domain"
	"github.com/John-Robertt/AFO/internal/rules"
)

func TestPlan_DestinationLayout(t *testing.T) {
	rs := rules.MustNew(
		rules.Rule{Category: "documents", Extensions: []string{".pdf"}},
		rules.Rule{Category: "images", Extensions: []string{".jpg"}},
	)
	recs := []domain.FileRecord{
		{Name: "a.pdf", Ext: ".pdf", Type: "application/pdf"},
		{Name: "b.unknownext", Ext: ".unknownext", Type: "image/png"},
		{Name: "c.xyz", Ext: ".xyz", Type: "application/octet-stream"},
	}

	plans := Plan(recs, rs, "/dst/")
	require.Len(t, plans, 3)

	want := []struct{ cat, dst string }{
		{"documents", "/dst/documents/a.pdf"},
		{"images", "/dst/images/b.unknownext"},
		{rules.FallbackCategory, "/dst/others/c.xyz"},
	}
	for i, w := range want {
		assert.Equal(t, w.cat, plans[i].Category)
		assert.Equal(t, filepath.FromSlash(w.dst), plans[i].DstAbs)
		assert.Equal(t, filepath.Dir(plans[i].DstAbs), plans[i].DstDir)
		assert.Equal(t, recs[i], plans[i].Record)
	}
}

func TestPlan_Empty(t *testing.T) {
	plans := Plan(nil, rules.RuleSet{}, "/dst")
	assert.NotNil(t, plans)
	assert.Empty(t, plans)
}

func TestSummarizeAndDirs(t *testing.T) {
	plans := []domain.TransferPlan{
		{Category: "images", DstDir: "/d/images"},
		{Category: "documents", DstDir: "/d/documents"},
		{Category: "images", DstDir: "/d/images"},
		{Category: "archives", DstDir: "/d/archives"},
	}

	assert.Equal(t, []CategoryCount{
		{Category: "images", Files: 2},
		{Category: "archives", Files: 1},
		{Category: "documents", Files: 1},
	}, Summarize(plans))

	assert.Equal(t, []string{"/d/archives", "/d/documents", "/d/images"}, Dirs(plans))
}
