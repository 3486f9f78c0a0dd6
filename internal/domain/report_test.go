package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizeResult_Finalize_SortCountsAndUTC(t *testing.T) {
	r := OrganizeResult{
		Source:     "/abs/src",
		Dest:       "/abs/dst",
		Mode:       ModeMove,
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Elapsed:    1234 * time.Millisecond,
		Total:      3,
		Files: []FileOutcome{
			{Name: "c.xyz", Status: FileStatusFailed},
			{Name: "a.pdf", Status: FileStatusMoved},
			{Name: "b.png", Status: FileStatusCopied},
		},
	}

	r.Finalize()

	require.Len(t, r.Files, 3)
	assert.Equal(t, []string{"a.pdf", "b.png", "c.xyz"}, []string{r.Files[0].Name, r.Files[1].Name, r.Files[2].Name}, "files 排序不符合契约")
	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.NotNil(t, r.Suggestions)
	assert.NotNil(t, r.Warnings)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	assert.True(t, bytes.Contains(b, []byte(`"started_at":"2026-02-09T02:00:00Z"`)), "started_at 不是 UTC RFC3339：%s", b)
	assert.True(t, bytes.Contains(b, []byte(`"execution_time":1.23`)), "execution_time 缺失：%s", b)
	assert.True(t, bytes.Contains(b, []byte(`"suggestions":[]`)), "suggestions 应为空数组：%s", b)
	assert.True(t, bytes.Contains(b, []byte(`"custom_categories":{"categories":[],"files":{}}`)), "custom_categories 应为空对象：%s", b)
}

func TestOrganizeResult_Finalize_PlannedNotCounted(t *testing.T) {
	r := OrganizeResult{
		DryRun: true,
		Total:  1,
		Files:  []FileOutcome{{Name: "a.pdf", Status: FileStatusPlanned}},
	}
	r.Finalize()
	assert.Zero(t, r.Succeeded)
	assert.Zero(t, r.Failed)
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeCopy, ModeFor(true))
	assert.Equal(t, ModeMove, ModeFor(false))
}

func TestFileRecord_SizeMB(t *testing.T) {
	assert.InDelta(t, 1.5, FileRecord{Size: 3 * 512 * 1024}.SizeMB(), 1e-9)
}
