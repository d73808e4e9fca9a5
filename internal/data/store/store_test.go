package store

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"phpmap/internal/engine/classmap"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "phpmap.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	mapping := classmap.NewMapping("/src/app")
	mapping.Add(`NS\Zeta`, "/src/app/z.php")
	mapping.Add(`NS\Alpha`, "/src/app/a.php")
	mapping.Add(`Top`, "/src/app/top.php")
	mapping.StaticFiles = []string{"/src/app/helpers.php"}

	if err := st.SaveMapping(mapping, 42); err != nil {
		t.Fatalf("save mapping: %v", err)
	}

	loaded, ok, err := st.LoadMapping("/src/app", 42)
	if err != nil {
		t.Fatalf("load mapping: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored mapping")
	}
	if loaded.Dir != "/src/app" {
		t.Fatalf("unexpected directory %q", loaded.Dir)
	}

	names := loaded.Names()
	want := []string{`NS\Zeta`, `NS\Alpha`, `Top`}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, names[i])
		}
	}

	// Insertion order must survive storage so case-insensitive lookup
	// behaves the same after a reload.
	if path, ok := loaded.Lookup(`ns\alpha`, false); !ok || path != "/src/app/a.php" {
		t.Fatalf("unexpected lookup result %q %v", path, ok)
	}

	if len(loaded.StaticFiles) != 1 || loaded.StaticFiles[0] != "/src/app/helpers.php" {
		t.Fatalf("unexpected static files: %v", loaded.StaticFiles)
	}
}

func TestStore_SaveReplacesPreviousScan(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "phpmap.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	first := classmap.NewMapping("/src/app")
	first.Add("A", "/src/app/A.php")
	if err := st.SaveMapping(first, 7); err != nil {
		t.Fatal(err)
	}

	second := classmap.NewMapping("/src/app")
	second.Add("A", "/src/app/A.php")
	second.Add("B", "/src/app/B.php")
	if err := st.SaveMapping(second, 7); err != nil {
		t.Fatal(err)
	}

	loaded, ok, err := st.LoadMapping("/src/app", 7)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || loaded.Len() != 2 {
		t.Fatalf("expected replaced scan with 2 symbols, got ok=%v len=%d", ok, loaded.Len())
	}

	records, err := st.ListScans("/src/app")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 scan record after replace, got %d", len(records))
	}
	if records[0].SymbolCount != 2 || records[0].Fingerprint != 7 {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestStore_LoadMissingScan(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "phpmap.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	_, ok, err := st.LoadMapping("/nowhere", 1)
	if err != nil {
		t.Fatalf("missing scan must not error: %v", err)
	}
	if ok {
		t.Fatal("expected no stored mapping")
	}
}

func TestStore_FingerprintsAreIsolated(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "phpmap.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	withStatic := classmap.NewMapping("/src/app")
	withStatic.Add("A", "/src/app/A.php")
	withStatic.StaticFiles = []string{"/src/app/helpers.php"}
	if err := st.SaveMapping(withStatic, 1); err != nil {
		t.Fatal(err)
	}

	plain := classmap.NewMapping("/src/app")
	plain.Add("A", "/src/app/A.php")
	if err := st.SaveMapping(plain, 2); err != nil {
		t.Fatal(err)
	}

	loaded, ok, err := st.LoadMapping("/src/app", 1)
	if err != nil || !ok {
		t.Fatalf("load fingerprint 1: ok=%v err=%v", ok, err)
	}
	if len(loaded.StaticFiles) != 1 {
		t.Fatalf("expected static file under fingerprint 1, got %v", loaded.StaticFiles)
	}

	loaded, ok, err = st.LoadMapping("/src/app", 2)
	if err != nil || !ok {
		t.Fatalf("load fingerprint 2: ok=%v err=%v", ok, err)
	}
	if len(loaded.StaticFiles) != 0 {
		t.Fatalf("expected no static files under fingerprint 2, got %v", loaded.StaticFiles)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phpmap.db")
	st, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	_, err = st.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}
