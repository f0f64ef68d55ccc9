package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingTB struct {
	testing.TB
	failed string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, _ ...any) { r.failed = format }

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nimport (\n\t\"fmt\"\n\t\"saltapi/internal/infra/rowstore\"\n)\n\nvar _ = fmt.Sprint\n")
	writeFile(t, dir, "a_test.go", "package a\n\nimport \"saltapi/internal/loaders\"\n")
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "saltapi/internal/infra/rowstore") {
		t.Fatalf("unexpected violations %v", viols)
	}

	rec := &recordingTB{TB: t}
	AssertNoDirectImports(rec, dir, InternalImportForbidden, "layering")
	if rec.failed == "" {
		t.Fatalf("expected failure to be reported")
	}
	clean := &recordingTB{TB: t}
	AssertNoDirectImports(clean, dir, PrefixesForbidden("database/sql"), "drivers")
	if clean.failed != "" {
		t.Fatalf("unexpected failure %q", clean.failed)
	}
}

func TestPrefixesForbidden(t *testing.T) {
	match := PrefixesForbidden("database/sql", "modernc.org/sqlite")
	for path, want := range map[string]bool{
		"database/sql":        true,
		"database/sql/driver": true,
		"database/sqlx":       false,
		"modernc.org/sqlite":  true,
		"fmt":                 false,
	} {
		if got := match(path); got != want {
			t.Fatalf("%s: got %v, want %v", path, got, want)
		}
	}
}
