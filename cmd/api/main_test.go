package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TeggTTV/resellz/internal/infrastructure/store/mocks"
	"github.com/TeggTTV/resellz/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLoader struct {
	err error
}

func (l stubLoader) Load(ctx context.Context) error {
	return l.err
}

// ============================================
// Startup Load Tests
// ============================================

func TestStartLoad_ReportsStoreFailure(t *testing.T) {
	kv := mocks.NewMockKVStore()
	kv.GetErr = errors.New("connection refused")
	tr := tracker.New(kv, zap.NewNop())

	select {
	case err := <-startLoad(context.Background(), tr):
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	case <-time.After(time.Second):
		t.Fatal("load failure was not reported")
	}
	assert.True(t, tr.IsLoading())
}

func TestStartLoad_SuccessSendsNothing(t *testing.T) {
	tr := tracker.New(mocks.NewMockKVStore(), zap.NewNop())

	errc := startLoad(context.Background(), tr)

	assert.Eventually(t, func() bool { return !tr.IsLoading() }, time.Second, time.Millisecond)
	select {
	case err := <-errc:
		t.Fatalf("unexpected load error: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStartLoad_CancelledContextSendsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errc := startLoad(ctx, stubLoader{err: context.Canceled})

	select {
	case err := <-errc:
		t.Fatalf("unexpected load error: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
}
