package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/storage/memory"
)

// SessionCounts for quick benchmarks.
var SessionCounts = []int{1000, 10000, 50000}

const benchOrigin = "https://dapp.bench"

func vaultRef(i int) domain.VaultRef {
	return domain.VaultRef{ID: fmt.Sprintf("v%d", i), Address: fmt.Sprintf("0x%040x", i)}
}

// prefillStore creates count sessions, each bound to one vault.
func prefillStore(b *testing.B, store *memory.Store, count int) []domain.SessionKey {
	b.Helper()
	ctx := context.Background()
	now := time.Now()
	keys := make([]domain.SessionKey, count)
	for i := 0; i < count; i++ {
		keys[i] = domain.SessionKey{SessionID: fmt.Sprintf("s%d", i), Origin: benchOrigin}
		dapp, err := domain.NewDApp(keys[i], vaultRef(i%100), now)
		if err != nil {
			b.Fatalf("NewDApp: %v", err)
		}
		if err := store.Create(ctx, dapp); err != nil {
			b.Fatalf("Create: %v", err)
		}
	}
	return keys
}

// reportMemory reports memory statistics.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
}

func runWithSessionCounts(b *testing.B, benchFn func(b *testing.B, count int)) {
	for _, count := range SessionCounts {
		b.Run(fmt.Sprintf("sessions_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
