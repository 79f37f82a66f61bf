// internal/nvs/nvs_test.go
package nvs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "settings.yaml")

	fs, err := OpenFile(path, "")
	if err != nil {
		t.Fatalf("OpenFile err=%v", err)
	}

	blob := []byte{0x00, 0x01, 0xFF, 'a'}
	if err := fs.Put("wlan", blob); err != nil {
		t.Fatalf("Put err=%v", err)
	}
	if err := fs.Put("brightness", []byte{5}); err != nil {
		t.Fatalf("Put err=%v", err)
	}

	again, err := OpenFile(path, DefaultNamespace)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}

	got, ok, err := again.Get("wlan")
	if err != nil || !ok {
		t.Fatalf("Get wlan ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, blob) {
		t.Fatalf("wlan blob: got=%x want=%x", got, blob)
	}

	keys := again.Keys()
	if len(keys) != 2 || keys[0] != "brightness" || keys[1] != "wlan" {
		t.Fatalf("keys: got=%v", keys)
	}
}

func TestFileStore_MissingKey(t *testing.T) {
	fs, err := OpenFile(filepath.Join(t.TempDir(), "s.yaml"), "")
	if err != nil {
		t.Fatalf("OpenFile err=%v", err)
	}
	if _, ok, err := fs.Get("input"); ok || err != nil {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
}

func TestFileStore_RejectsForeignNamespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	fs, err := OpenFile(path, "one")
	if err != nil {
		t.Fatalf("OpenFile err=%v", err)
	}
	if err := fs.Put("k", []byte{1}); err != nil {
		t.Fatalf("Put err=%v", err)
	}

	if _, err := OpenFile(path, "two"); err == nil {
		t.Fatalf("expected namespace mismatch error")
	}
}

func TestFileStore_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	if err := os.WriteFile(path, []byte("values:\n  wlan: not-hex\n"), 0o644); err != nil {
		t.Fatalf("write err=%v", err)
	}
	if _, err := OpenFile(path, ""); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFileStore_GetReturnsCopy(t *testing.T) {
	fs, err := OpenFile(filepath.Join(t.TempDir(), "s.yaml"), "")
	if err != nil {
		t.Fatalf("OpenFile err=%v", err)
	}
	_ = fs.Put("k", []byte{1, 2, 3})

	got, _, _ := fs.Get("k")
	got[0] = 9

	again, _, _ := fs.Get("k")
	if again[0] != 1 {
		t.Fatalf("Get leaked internal buffer")
	}
}

func TestMemStore_PutGet(t *testing.T) {
	m := NewMem()
	if _, ok, _ := m.Get("x"); ok {
		t.Fatalf("expected empty store")
	}
	_ = m.Put("x", []byte{7})
	got, ok, err := m.Get("x")
	if !ok || err != nil || len(got) != 1 || got[0] != 7 {
		t.Fatalf("unexpected Get result %v %v %v", got, ok, err)
	}
}

func TestFileStore_PutLeavesOnlyTheNamespaceFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	path := filepath.Join(dir, "settings.yaml")

	fs, err := OpenFile(path, "")
	if err != nil {
		t.Fatalf("OpenFile err=%v", err)
	}
	for i := 0; i < 5; i++ {
		if err := fs.Put("input", []byte{byte(i)}); err != nil {
			t.Fatalf("Put err=%v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir err=%v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "settings.yaml" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected files after writes: %v", names)
	}
}
