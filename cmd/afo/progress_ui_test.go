package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/AFO/internal/app/organize"
	"github.com/John-Robertt/AFO/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart("0123456789abcdef", organize.Request{Source: "/in", Dest: "/out"})
	p.OnPhaseDone("scan", map[string]any{"files": 2}, 10*time.Millisecond)
	p.OnPhaseDone("plan", map[string]any{"images": 1, "documents": 1}, time.Millisecond)
	p.OnFileDone(1, 2, domain.FileOutcome{Name: "a.pdf", Category: "documents", Status: domain.FileStatusMoved}, time.Millisecond)
	p.OnFileDone(2, 2, domain.FileOutcome{Name: "b.png", Status: domain.FileStatusFailed, Error: "permission denied"}, time.Millisecond)
	p.OnPhaseDone("transfer", nil, time.Millisecond)
	p.Stop()

	out := buf.String()
	for _, want := range []string{
		"afo run 01234567",
		"mode:   move",
		"扫描: files=2",
		"规划: documents=1 images=1",
		"[1/2] a.pdf -> documents MOVED",
		"[2/2] b.png FAIL: permission denied",
		"转移: ok=1 fail=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestProgressUI_DryRunHint(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)
	p.OnStart("id", organize.Request{KeepOriginals: true, DryRun: true, UseAI: true})
	if !strings.Contains(buf.String(), "copy (dry-run") || !strings.Contains(buf.String(), "ai:     off") {
		t.Fatalf("dry-run 提示不符合预期：\n%s", buf.String())
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(3725 * time.Second); got != "01:02:05" {
		t.Fatalf("formatElapsed=%q", got)
	}
	if got := truncate("abcdefgh", 5); got != "ab..." {
		t.Fatalf("truncate=%q", got)
	}
}
