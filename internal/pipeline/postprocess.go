package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/coopco/helmsman/internal/bus"
)

// Code-extraction limits. Short snippets read better inline; only
// blocks past minExtractLen move into attachments.
const (
	minExtractLen  = 240
	minCodeLines   = 8
	minIndentRatio = 0.3
	minKeywordHits = 4
)

var codeExtensions = map[string]string{
	"go":         "go",
	"python":     "py",
	"py":         "py",
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"json":       "json",
	"yaml":       "yaml",
	"yml":        "yaml",
	"bash":       "sh",
	"sh":         "sh",
	"shell":      "sh",
	"html":       "html",
	"css":        "css",
	"sql":        "sql",
	"c":          "c",
	"rust":       "rs",
}

// ExtractAttachments scans a final response for code blocks that should
// travel as files. Fenced blocks are extracted when long enough and
// replaced with a placeholder line; a response that is itself one big
// unfenced code listing is shipped whole as a file.
func ExtractAttachments(text string) (string, []bus.Attachment) {
	if strings.Count(text, "```") >= 2 {
		return extractFenced(text)
	}
	if looksLikeCode(text) {
		att := newAttachment("txt", text)
		return fmt.Sprintf("(code attached: %s)", att.Name), []bus.Attachment{att}
	}
	return text, nil
}

func extractFenced(text string) (string, []bus.Attachment) {
	var atts []bus.Attachment
	var out strings.Builder

	rest := text
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+3:], "```")
		if end < 0 {
			break
		}
		block := rest[start+3 : start+3+end]
		lang, body, _ := strings.Cut(block, "\n")
		lang = strings.TrimSpace(lang)

		out.WriteString(rest[:start])
		if len(body) >= minExtractLen {
			ext := codeExtensions[strings.ToLower(lang)]
			if ext == "" {
				ext = "txt"
			}
			att := newAttachment(ext, strings.TrimRight(body, "\n")+"\n")
			atts = append(atts, att)
			fmt.Fprintf(&out, "(code attached: %s)", att.Name)
		} else {
			out.WriteString(rest[start : start+3+end+3])
		}
		rest = rest[start+3+end+3:]
	}
	out.WriteString(rest)
	return out.String(), atts
}

func newAttachment(ext, body string) bus.Attachment {
	name := fmt.Sprintf("snippet-%s.%s", uuid.NewString()[:8], ext)
	return bus.Attachment{Name: name, Data: []byte(body)}
}

var codeKeywords = []string{
	"func ", "return ", "import ", "class ", "def ", "var ", "const ",
	":=", "{", "}", "();", "#include", "package ", "if (", "for (",
}

// looksLikeCode detects a long unfenced listing by line count, indented
// line ratio and keyword density.
func looksLikeCode(text string) bool {
	if len(text) < minExtractLen {
		return false
	}
	lines := strings.Split(text, "\n")
	if len(lines) < minCodeLines {
		return false
	}

	indented := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "\t") || strings.HasPrefix(l, "    ") {
			indented++
		}
	}
	if float64(indented)/float64(len(lines)) < minIndentRatio {
		return false
	}

	hits := 0
	for _, kw := range codeKeywords {
		hits += strings.Count(text, kw)
	}
	return hits >= minKeywordHits
}
