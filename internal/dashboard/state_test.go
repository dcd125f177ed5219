package dashboard

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"
	"inventario-backend/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRefreshLoadsAllCollections(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore(nil)
	require.NoError(t, st.SetProduct(ctx, models.Product{ID: "A", Name: "Alfa", Subwarehouse: "R"}))
	tx, err := st.CreateTransaction(ctx, models.Transaction{ProductID: "A", Quantity: 5, Type: models.TransactionEntry})
	require.NoError(t, err)
	require.NoError(t, st.SetMarked(ctx, tx.ID, time.Now()))

	s := New(st, realtime.NewHub(), quietLogger())
	require.NoError(t, s.Refresh(ctx))

	snap := s.Snapshot()
	assert.Len(t, snap.Products, 1)
	assert.Len(t, snap.Transactions, 1)
	assert.Equal(t, []string{tx.ID}, snap.Marked)
	assert.Equal(t, 5, snap.Stock["A"])
	assert.True(t, s.IsMarked(tx.ID))

	rows := s.ProductsWithStock()
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Stock)
}

func TestStartReplacesCollectionOnEveryChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	st := store.NewMemoryStore(hub)
	s := New(st, hub, quietLogger())
	s.Start(ctx)

	require.NoError(t, st.SetProduct(ctx, models.Product{ID: "A", Name: "Alfa", Subwarehouse: "R"}))
	_, err := st.CreateTransaction(ctx, models.Transaction{ProductID: "A", Quantity: 3, Type: models.TransactionEntry})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(s.Products()) == 1 && s.Stock()["A"] == 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, st.DeleteProduct(ctx, "A"))
	assert.Eventually(t, func() bool {
		_, ok := s.Product("A")
		return !ok
	}, time.Second, 5*time.Millisecond)

	// la colección de transacciones no depende de la de productos
	assert.Len(t, s.Transactions(), 1)
}

func TestFailedReadKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore(nil)
	require.NoError(t, st.SetProduct(ctx, models.Product{ID: "A", Name: "Alfa", Subwarehouse: "R"}))

	s := New(st, realtime.NewHub(), quietLogger())
	require.NoError(t, s.Refresh(ctx))
	before := s.Version()

	require.NoError(t, st.SetProduct(ctx, models.Product{ID: "B", Name: "Beta", Subwarehouse: "R"}))
	st.FailNext(store.OpNameListProducts, errors.New("sin conexión"))

	err := s.reload(ctx, realtime.Products)
	require.Error(t, err)
	assert.Len(t, s.Products(), 1)
	assert.Equal(t, before, s.Version())

	require.NoError(t, s.reload(ctx, realtime.Products))
	assert.Len(t, s.Products(), 2)
}

func TestAccessorsReturnCopies(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore(nil)
	require.NoError(t, st.SetProduct(ctx, models.Product{ID: "A", Name: "Alfa", Subwarehouse: "R"}))

	s := New(st, realtime.NewHub(), quietLogger())
	require.NoError(t, s.Refresh(ctx))

	p := s.Products()
	p[0].Name = "mutado"
	assert.Equal(t, "Alfa", s.Products()[0].Name)

	m := s.ProductMap()
	delete(m, "A")
	_, ok := s.Product("A")
	assert.True(t, ok)
}

func TestEmptyStateSerializesAsEmptySlices(t *testing.T) {
	s := New(store.NewMemoryStore(nil), realtime.NewHub(), quietLogger())
	assert.NotNil(t, s.Products())
	assert.NotNil(t, s.Transactions())
	assert.NotNil(t, s.Marked())
}

// gatedSource: la primera lectura de transacciones se detiene después de leer
type gatedSource struct {
	*store.MemoryStore
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSource) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := g.MemoryStore.ListTransactions(ctx)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.read)
		<-g.release
	}
	return txs, err
}

func TestReloadDropsOlderRead(t *testing.T) {
	ctx := context.Background()
	src := &gatedSource{MemoryStore: store.NewMemoryStore(nil), read: make(chan struct{}), release: make(chan struct{})}
	s := New(src, realtime.NewHub(), quietLogger())

	done := make(chan error, 1)
	go func() { done <- s.Reload(ctx, realtime.Transactions) }()
	<-src.read

	_, err := src.CreateTransaction(ctx, models.Transaction{ProductID: "A", Quantity: 2, Type: models.TransactionEntry})
	require.NoError(t, err)
	require.NoError(t, s.Reload(ctx, realtime.Transactions))
	require.Len(t, s.Transactions(), 1)

	close(src.release)
	require.NoError(t, <-done)
	assert.Len(t, s.Transactions(), 1, "the earlier read does not overwrite the newer one")
}

func TestReloadUnknownCollection(t *testing.T) {
	s := New(store.NewMemoryStore(nil), realtime.NewHub(), quietLogger())
	assert.Error(t, s.Reload(context.Background(), "users"))
}
