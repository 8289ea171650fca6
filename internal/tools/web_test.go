package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebGetFetchesAndStripsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><style>p{color:red}</style><script>alert(1)</script></head>
<body><p>Hello   device</p></body></html>`)
	}))
	defer srv.Close()

	tool := NewWebGetTool()
	params, _ := json.Marshal(map[string]string{"url": srv.URL})
	out, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "Hello device") {
		t.Errorf("output = %q, want stripped text", out)
	}
	if strings.Contains(out, "alert") || strings.Contains(out, "color:red") {
		t.Errorf("output = %q, script/style not stripped", out)
	}
}

func TestWebGetErrors(t *testing.T) {
	tool := NewWebGetTool()

	if _, err := tool.Execute(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing url")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	params, _ := json.Marshal(map[string]string{"url": srv.URL})
	if _, err := tool.Execute(context.Background(), params); err == nil {
		t.Error("expected error for 404 response")
	}
}
