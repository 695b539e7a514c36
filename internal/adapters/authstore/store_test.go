package authstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"zapcast/internal/core/session"
	"zapcast/platform/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir(), logger.New(logger.TestConfig()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestCreateWritesMetadata(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Create("s1", "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if filepath.Base(path) != "session_s1" {
		t.Errorf("path = %s, want session_s1 directory", path)
	}

	data, err := os.ReadFile(filepath.Join(path, metadataFile))
	if err != nil {
		t.Fatalf("metadata not written: %v", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta.UserID != "u1" || meta.SessionID != "s1" {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.CreatedAt.IsZero() {
		t.Error("createdAt not set")
	}
}

func TestCreateIsIdempotentForSameOwner(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Create("s1", "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Segunda chamada do mesmo dono reusa o diretório sem reescrever metadados
	second, err := store.Create("s1", "u1")
	if err != nil {
		t.Fatalf("Create again: %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %s vs %s", first, second)
	}
}

func TestCreateRefusesDirectoryOwnedByAnotherUser(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Create("s1", "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// O diretório persiste entre execuções; o segundo chamador não pode
	// herdar o container de credenciais pareado do primeiro
	if _, err := store.Create("s1", "u2"); !errors.Is(err, session.ErrNotSessionOwner) {
		t.Fatalf("err = %v, want ErrNotSessionOwner", err)
	}

	data, _ := os.ReadFile(filepath.Join(path, metadataFile))
	var meta Metadata
	_ = json.Unmarshal(data, &meta)
	if meta.UserID != "u1" {
		t.Errorf("metadata owner = %s, want original u1", meta.UserID)
	}
}

func TestCreateRebindsDirectoryWithCorruptMetadata(t *testing.T) {
	store := newTestStore(t)

	path := filepath.Join(store.root, "session_s1")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, metadataFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Metadados ilegíveis não identificam dono algum; o diretório é reatribuído
	if _, err := store.Create("s1", "u1"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(path, metadataFile))
	if err != nil {
		t.Fatal(err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("metadata not rewritten: %v", err)
	}
	if meta.UserID != "u1" {
		t.Errorf("metadata owner = %s, want u1", meta.UserID)
	}
}

func TestListExistingSkipsBadEntries(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Create("s1", "u1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create("s2", "u2"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Diretório de sessão sem metadados
	if err := os.MkdirAll(filepath.Join(store.root, "session_broken"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Metadados corrompidos
	corrupt := filepath.Join(store.root, "session_corrupt")
	if err := os.MkdirAll(corrupt, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corrupt, metadataFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Diretório alheio no root
	if err := os.MkdirAll(filepath.Join(store.root, "tmp"), 0o755); err != nil {
		t.Fatal(err)
	}

	stored, err := store.ListExisting()
	if err != nil {
		t.Fatalf("ListExisting: %v", err)
	}

	if len(stored) != 2 {
		t.Fatalf("stored = %d entries, want 2", len(stored))
	}
	found := make(map[string]string)
	for _, s := range stored {
		found[s.SessionID] = s.OwnerID
	}
	if found["s1"] != "u1" || found["s2"] != "u2" {
		t.Errorf("stored = %v", found)
	}
}

func TestDeleteRefusesPathsOutsideRoot(t *testing.T) {
	store := newTestStore(t)

	outside := t.TempDir()
	victim := filepath.Join(outside, "keep.txt")
	if err := os.WriteFile(victim, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}

	store.Delete(victim)
	store.Delete(outside)
	store.Delete(store.root)
	store.Delete("")

	if _, err := os.Stat(victim); err != nil {
		t.Error("file outside the auth root was deleted")
	}
	if _, err := os.Stat(store.root); err != nil {
		t.Error("auth root itself was deleted")
	}
}

func TestDeleteRemovesSessionDirectory(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Create("s1", "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.Delete(path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session directory still exists after delete")
	}
}

func TestWipeOwner(t *testing.T) {
	store := newTestStore(t)

	p1, _ := store.Create("s1", "u1")
	p2, _ := store.Create("s2", "u1")
	p3, _ := store.Create("s3", "u2")

	if err := store.WipeOwner("u1"); err != nil {
		t.Fatalf("WipeOwner: %v", err)
	}

	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should be wiped", p)
		}
	}
	if _, err := os.Stat(p3); err != nil {
		t.Error("other owner's material must survive")
	}
}
