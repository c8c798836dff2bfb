package storage

import (
	"context"
	"testing"
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/storage/memory"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		engine  string
		wantErr bool
	}{
		{"default", "", false},
		{"memory", EngineMemory, false},
		{"badger", EngineBadger, false},
		{"unknown", "pebble", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(t.TempDir())
			cfg.Engine = tt.engine
			cfg.EncryptionKey = "secret"

			e, err := Open(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer e.Close()

			if e.DApps == nil || e.Codes == nil {
				t.Fatal("Open() returned nil repositories")
			}
		})
	}
}

func TestOpen_MemoryTypes(t *testing.T) {
	e, err := Open(DefaultConfig(""))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.DApps.(*memory.Store); !ok {
		t.Errorf("DApps = %T, want *memory.Store", e.DApps)
	}
}

func TestOpen_BadgerRequiresDir(t *testing.T) {
	cfg := DefaultConfig("")
	cfg.Engine = EngineBadger
	if _, err := Open(cfg); err == nil {
		t.Error("expected error without data_dir")
	}
}

func TestOpen_BadgerReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.Engine = EngineBadger
	cfg.EncryptionKey = "secret"
	ctx := context.Background()

	e, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := domain.NewDApp(domain.SessionKey{SessionID: "s1", Origin: "o"},
		domain.VaultRef{ID: "v1", Address: "0x1"}, time.Now())
	if err := e.DApps.Create(ctx, d); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	e, err = Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	got, err := e.DApps.Get(ctx, d.Key())
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.ID != d.ID {
		t.Errorf("ID = %s, want %s", got.ID, d.ID)
	}
}
