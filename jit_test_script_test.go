package saturn

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLuaScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.lua")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLuaTestScriptParsesEntries(t *testing.T) {
	path := writeLuaScript(t, `
tests = {
	{ name = "mov-immediate-aliasing", pc = 0x06004000, word = 0xE500, r = {1, 2, 3}, t = true },
	{ name = "zero-word", word = 0x0000 },
}
`)
	tests, err := LoadLuaTestScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tests) != 2 {
		t.Fatalf("expected 2 tests, got %d", len(tests))
	}
	first := tests[0]
	if first.Name != "mov-immediate-aliasing" {
		t.Fatalf("got name %q", first.Name)
	}
	if first.Initial.PC != 0x06004000 {
		t.Fatalf("got pc %#x", first.Initial.PC)
	}
	if first.Program[0] != 0xE500 {
		t.Fatalf("got word %#x", first.Program[0])
	}
	if first.Initial.R[0] != 1 || first.Initial.R[1] != 2 || first.Initial.R[2] != 3 {
		t.Fatalf("registers did not convert: %+v", first.Initial.R[:3])
	}
	if !first.Initial.T() {
		t.Fatal("expected T bit set")
	}
}

func TestLoadLuaTestScriptRejectsMissingTestsTable(t *testing.T) {
	path := writeLuaScript(t, `not_tests = {}`)
	if _, err := LoadLuaTestScript(path); err == nil {
		t.Fatal("expected an error when `tests` global is absent")
	}
}

func TestLoadLuaTestScriptPropagatesSyntaxErrors(t *testing.T) {
	path := writeLuaScript(t, `this is not valid lua {{{`)
	if _, err := LoadLuaTestScript(path); err == nil {
		t.Fatal("expected an error for invalid lua syntax")
	}
}
