package addrbook

import (
	"path/filepath"
	"testing"
)

func newTestNameDB(t *testing.T) *NameDB {
	t.Helper()
	dir := t.TempDir()
	db, err := NewNameDB(filepath.Join(dir, "addresses.json"), filepath.Join(dir, "addresses.bleve"))
	if err != nil {
		t.Fatalf("couldn't open the name db: %s", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNameDBAddAndSearch(t *testing.T) {
	db := newTestNameDB(t)

	if err := db.Add(addr1, "kyber vault"); err != nil {
		t.Fatalf("add failed: %s", err)
	}
	if err := db.Add(addr2, "payroll ops"); err != nil {
		t.Fatalf("add failed: %s", err)
	}
	if err := db.Add("nonsense", "whatever"); err == nil {
		t.Errorf("expected an invalid address to be rejected")
	}

	hits := db.Search("vault")
	if len(hits) == 0 {
		t.Fatalf("expected at least one hit for 'vault'")
	}
	if hits[0].Address != addr1 {
		t.Errorf("expected %s as the best hit, got %s", addr1, hits[0].Address)
	}
}

func TestNameDBResolve(t *testing.T) {
	db := newTestNameDB(t)
	if err := db.Add(addr1, "payroll wallet"); err != nil {
		t.Fatalf("add failed: %s", err)
	}

	// literal addresses pass through normalized
	resolved, err := db.Resolve("0xABCDEFabcdefABCDEFabcdefABCDEFabcdefABCD")
	if err != nil {
		t.Fatalf("resolve failed: %s", err)
	}
	if resolved != "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd" {
		t.Errorf("expected a normalized address, got %s", resolved)
	}

	resolved, err = db.Resolve("payroll")
	if err != nil {
		t.Fatalf("resolve by name failed: %s", err)
	}
	if resolved != addr1 {
		t.Errorf("expected %s, got %s", addr1, resolved)
	}

	if _, err := db.Resolve("no such name"); err == nil {
		t.Errorf("expected resolving an unknown name to fail")
	}
}

func TestNameDBPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "addresses.json")
	indexPath := filepath.Join(dir, "addresses.bleve")

	db, err := NewNameDB(dataFile, indexPath)
	if err != nil {
		t.Fatalf("couldn't open the name db: %s", err)
	}
	if err := db.Add(addr1, "treasury"); err != nil {
		t.Fatalf("add failed: %s", err)
	}
	db.Close()

	db, err = NewNameDB(dataFile, indexPath)
	if err != nil {
		t.Fatalf("couldn't reopen the name db: %s", err)
	}
	defer db.Close()
	if len(db.All()) != 1 {
		t.Errorf("expected the saved entry to survive a reopen")
	}
	hits := db.Search("treasury")
	if len(hits) != 1 || hits[0].Address != addr1 {
		t.Errorf("expected the index to survive a reopen, got %v", hits)
	}
}
