package docs

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	got := strings.Join(Topics(), ",")
	if got != "backend,config,keys" {
		t.Fatalf("topics = %s", got)
	}
}

func TestGet(t *testing.T) {
	if s, ok := Get(" KEYS "); !ok || !strings.HasPrefix(s, "# Keys") {
		t.Fatalf("keys topic missing")
	}
	if _, ok := Get("../docs"); ok {
		t.Fatalf("path traversal accepted")
	}
}
