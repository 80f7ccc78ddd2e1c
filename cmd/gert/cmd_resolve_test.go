package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResolveCmd(t *testing.T) {
	_, c1, c2 := setupHistory(t)

	out := runCmd(t, newResolveCmd(), "HEAD")
	if strings.TrimSpace(out) != string(c2) {
		t.Errorf("resolve HEAD: got %q, want %s", strings.TrimSpace(out), c2)
	}

	out = runCmd(t, newResolveCmd(), "main^")
	if strings.TrimSpace(out) != string(c1) {
		t.Errorf("resolve main^: got %q, want %s", strings.TrimSpace(out), c1)
	}

	// Annotated tag peels to the tagged commit.
	out = runCmd(t, newResolveCmd(), "v1")
	if strings.TrimSpace(out) != string(c1) {
		t.Errorf("resolve v1: got %q, want %s", strings.TrimSpace(out), c1)
	}
}

func TestResolveCmdShort(t *testing.T) {
	_, _, c2 := setupHistory(t)

	out := strings.TrimSpace(runCmd(t, newResolveCmd(), "--short", "HEAD"))
	if len(out) != 12 {
		t.Errorf("resolve --short: got %d chars (%q), want 12", len(out), out)
	}
	if !strings.HasPrefix(string(c2), out) {
		t.Errorf("resolve --short: %q is not a prefix of %s", out, c2)
	}
}

func TestResolveCmdType(t *testing.T) {
	setupHistory(t)

	out := strings.TrimSpace(runCmd(t, newResolveCmd(), "--type", "HEAD^{tree}"))
	if !strings.HasSuffix(out, " tree") {
		t.Errorf("resolve --type HEAD^{tree}: got %q, want trailing \" tree\"", out)
	}
}

func TestResolveCmdJSON(t *testing.T) {
	_, _, c2 := setupHistory(t)

	out := runCmd(t, newResolveCmd(), "--json", "HEAD")
	var got struct {
		Expr string `json:"expr"`
		Hash string `json:"hash"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal output %q: %v", out, err)
	}
	if got.Hash != string(c2) || got.Type != "commit" || got.Expr != "HEAD" {
		t.Errorf("resolve --json: got %+v, want hash %s type commit", got, c2)
	}
}

func TestResolveCmdNotFound(t *testing.T) {
	setupHistory(t)

	err := runCmdErr(t, newResolveCmd(), "no-such-thing")
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("resolve error: got %q, want mention of not found", err)
	}
}
