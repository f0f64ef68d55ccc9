package rowstore_test

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyRowstoreImportsDrivers keeps database/sql and the SQL drivers behind
// rowstore.Executor; everything else queries through the interface.
func TestOnlyRowstoreImportsDrivers(t *testing.T) {
	allowedPrefix := "saltapi/internal/infra/rowstore"
	forbidden := []string{
		"database/sql",
		"github.com/go-sql-driver/mysql",
		"github.com/jackc/pgx/v5",
		"modernc.org/sqlite",
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "saltapi/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if strings.HasPrefix(pkg.PkgPath, allowedPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			for _, f := range forbidden {
				if importPath == f || strings.HasPrefix(importPath, f+"/") {
					seen[pkg.PkgPath+": "+importPath] = struct{}{}
				}
			}
		}
	}
	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden driver import: %s", v)
		}
		t.Fatalf("found %d driver imports outside rowstore", len(violations))
	}
}
