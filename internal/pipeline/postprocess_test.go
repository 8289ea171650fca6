package pipeline

import (
	"strings"
	"testing"
)

func TestExtractAttachmentsPlainText(t *testing.T) {
	in := "Nothing to see here, just prose."
	out, atts := ExtractAttachments(in)
	if out != in || len(atts) != 0 {
		t.Fatalf("out=%q atts=%d", out, len(atts))
	}
}

func TestExtractAttachmentsFencedBlock(t *testing.T) {
	code := strings.Repeat("func main() {\n\tdoWork()\n}\n", 10)
	in := "Here you go:\n```go\n" + code + "```\nLet me know."

	out, atts := ExtractAttachments(in)
	if len(atts) != 1 {
		t.Fatalf("attachments = %d", len(atts))
	}
	if !strings.HasSuffix(atts[0].Name, ".go") {
		t.Fatalf("name = %q", atts[0].Name)
	}
	if !strings.Contains(string(atts[0].Data), "doWork()") {
		t.Fatalf("data = %q", atts[0].Data)
	}
	if strings.Contains(out, "doWork()") || !strings.Contains(out, "(code attached: ") {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(out, "Here you go:") || !strings.Contains(out, "Let me know.") {
		t.Fatalf("surrounding prose lost: %q", out)
	}
}

func TestExtractAttachmentsShortFenceStaysInline(t *testing.T) {
	in := "Run this:\n```sh\nls -la\n```\ndone."
	out, atts := ExtractAttachments(in)
	if len(atts) != 0 {
		t.Fatalf("attachments = %d", len(atts))
	}
	if !strings.Contains(out, "ls -la") {
		t.Fatalf("out = %q", out)
	}
}

func TestExtractAttachmentsTwoBlocks(t *testing.T) {
	long := strings.Repeat("def work():\n    pass\n", 15)
	in := "First:\n```python\n" + long + "```\nthen:\n```python\n" + long + "```"

	out, atts := ExtractAttachments(in)
	if len(atts) != 2 {
		t.Fatalf("attachments = %d", len(atts))
	}
	if atts[0].Name == atts[1].Name {
		t.Fatal("attachment names must be unique")
	}
	if strings.Count(out, "(code attached: ") != 2 {
		t.Fatalf("out = %q", out)
	}
}

func TestExtractAttachmentsUnfenced(t *testing.T) {
	var b strings.Builder
	b.WriteString("package main\n\nimport \"fmt\"\n\n")
	for i := 0; i < 10; i++ {
		b.WriteString("func handler() {\n\tfmt.Println(\"x\")\n\treturn\n}\n")
	}
	out, atts := ExtractAttachments(b.String())
	if len(atts) != 1 {
		t.Fatalf("attachments = %d", len(atts))
	}
	if !strings.HasPrefix(out, "(code attached: ") {
		t.Fatalf("out = %q", out)
	}
}

func TestLooksLikeCodeRejectsProse(t *testing.T) {
	prose := strings.Repeat("This is a perfectly ordinary paragraph about gardening and weather patterns.\n", 12)
	if looksLikeCode(prose) {
		t.Fatal("prose flagged as code")
	}
}
