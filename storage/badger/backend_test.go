package badger

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
)

func TestBackendLifecycle(t *testing.T) {
	backend, err := OpenBackend("", true)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}
	if backend.IsClosed() {
		t.Fatal("Backend should not report closed while open")
	}

	err = backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	var value []byte
	err = backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte("k"))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if string(value) != "v" {
		t.Fatalf("Expected 'v', got %q", value)
	}

	if err := backend.Close(); err != nil {
		t.Fatalf("Failed to close backend: %v", err)
	}
	if !backend.IsClosed() {
		t.Fatal("Backend should report closed after Close")
	}
}
