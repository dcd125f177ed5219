package inventory

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"inventario-backend/internal/audit"
	"inventario-backend/internal/catalog"
	"inventario-backend/internal/dashboard"
	"inventario-backend/internal/importer"
	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"
	"inventario-backend/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ctx   context.Context
	store *store.MemoryStore
	state *dashboard.State
	rec   *audit.MemoryRecorder
	svc   *Service
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	hub := realtime.NewHub()
	st := store.NewMemoryStore(hub)
	state := dashboard.New(st, hub, log)
	rec := audit.NewMemoryRecorder()
	return &testEnv{
		ctx:   audit.WithActor(context.Background(), audit.Actor{UserID: 1, UserName: "Ana"}),
		store: st,
		state: state,
		rec:   rec,
		svc:   NewService(st, state, rec, log),
	}
}

// sync: recarga tras escribir directo en el store (sin pasar por el servicio)
func (e *testEnv) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, e.state.Refresh(e.ctx))
}

func (e *testEnv) product(t *testing.T, id, name, sub string) {
	t.Helper()
	require.NoError(t, e.store.SetProduct(e.ctx, models.Product{ID: id, Name: name, Subwarehouse: sub}))
	e.sync(t)
}

func (e *testEnv) entry(t *testing.T, productID string, qty int) models.Transaction {
	t.Helper()
	tx, err := e.svc.RecordTransaction(e.ctx, NewTransaction{ProductID: productID, Quantity: qty, Type: models.TransactionEntry})
	require.NoError(t, err)
	return tx
}

func TestAddProduct(t *testing.T) {
	e := newEnv(t)

	p, err := e.svc.AddProduct(e.ctx, models.Product{ID: " H-1 ", Name: " Diluyente ", Subwarehouse: "REACTIVOS "})
	require.NoError(t, err)
	assert.Equal(t, models.Product{ID: "H-1", Name: "Diluyente", Subwarehouse: "REACTIVOS"}, p)

	_, err = e.svc.AddProduct(e.ctx, models.Product{ID: "H-1", Name: "Otro", Subwarehouse: "X"})
	assert.ErrorIs(t, err, ErrDuplicateProduct)
	assert.Equal(t, MsgDuplicateProduct, AsRejection(err).Message)

	_, err = e.svc.AddProduct(e.ctx, models.Product{ID: "H-2", Name: "  ", Subwarehouse: "X"})
	assert.ErrorIs(t, err, ErrRequiredFields)
	assert.Equal(t, "Todos los campos son obligatorios.", AsRejection(err).Message)

	logs, err := e.rec.List(e.ctx, audit.Filter{EntityID: "H-1"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Ana", logs[0].UserName)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
}

func TestAddProductRemoteFailure(t *testing.T) {
	e := newEnv(t)
	e.store.FailNext(store.OpNameSetProduct, errors.New("sin red"))

	_, err := e.svc.AddProduct(e.ctx, models.Product{ID: "H-1", Name: "Diluyente", Subwarehouse: "R"})
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "set_product", remoteErr.Op)

	rej := AsRejection(err)
	assert.Equal(t, http.StatusInternalServerError, rej.Status)
	assert.Equal(t, "No se pudo agregar el producto.", rej.Message)

	assert.Empty(t, e.state.Products(), "no partial effect")
}

func TestUpdateProduct(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")

	p, err := e.svc.UpdateProduct(e.ctx, "H-1", "Diluyente 20 L", "REACTIVOS")
	require.NoError(t, err)
	assert.Equal(t, "H-1", p.ID)

	got, ok := e.state.Product("H-1")
	require.True(t, ok)
	assert.Equal(t, "Diluyente 20 L", got.Name)
	assert.Len(t, e.state.Products(), 1)

	_, err = e.svc.UpdateProduct(e.ctx, "H-404", "X", "Y")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = e.svc.UpdateProduct(e.ctx, "H-1", "", "Y")
	assert.ErrorIs(t, err, ErrRequiredFields)

	logs, err := e.rec.List(e.ctx, audit.Filter{EntityType: audit.EntityProduct})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].BeforeData, "Diluyente")
	assert.Contains(t, logs[0].AfterData, "Diluyente 20 L")
}

func TestDeleteProductBlockedByTransactions(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")
	e.product(t, "H-2", "Control", "C")
	e.entry(t, "H-1", 3)

	err := e.svc.DeleteProduct(e.ctx, "H-1")
	assert.ErrorIs(t, err, ErrProductHasTransactions)
	rej := AsRejection(err)
	assert.Equal(t, TitleDeleteBlocked, rej.Title)
	assert.Equal(t, "Este producto no se puede eliminar porque tiene transacciones asociadas. Elimine primero las transacciones.", rej.Message)

	require.NoError(t, e.svc.CheckProductDeletable(e.ctx, "H-2"))
	require.NoError(t, e.svc.DeleteProduct(e.ctx, "H-2"))
	_, ok := e.state.Product("H-2")
	assert.False(t, ok)

	assert.ErrorIs(t, e.svc.DeleteProduct(e.ctx, "H-2"), ErrProductNotFound)
}

func TestDeleteProductCountFailure(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")
	e.store.FailNext(store.OpNameCountForProduct, errors.New("timeout"))

	err := e.svc.DeleteProduct(e.ctx, "H-1")
	assert.Equal(t, "No se pudo eliminar el producto.", AsRejection(err).Message)
	assert.Len(t, e.state.Products(), 1)
}

func TestRecordTransactionValidation(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")

	cases := []struct {
		name string
		in   NewTransaction
		want error
	}{
		{"missing product", NewTransaction{Quantity: 1, Type: models.TransactionEntry}, ErrRequiredFields},
		{"zero quantity", NewTransaction{ProductID: "H-1", Quantity: 0, Type: models.TransactionEntry}, ErrInvalidQuantity},
		{"negative quantity", NewTransaction{ProductID: "H-1", Quantity: -2, Type: models.TransactionEntry}, ErrInvalidQuantity},
		{"bad type", NewTransaction{ProductID: "H-1", Quantity: 1, Type: "RETURN"}, ErrInvalidType},
		{"unknown product", NewTransaction{ProductID: "H-9", Quantity: 1, Type: models.TransactionEntry}, ErrProductNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svc.RecordTransaction(e.ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.NotNil(t, AsRejection(err))
		})
	}

	txs, err := e.store.ListTransactions(e.ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestExitAdmission(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "REACTIVOS")
	e.entry(t, "H-1", 3)

	_, err := e.svc.RecordTransaction(e.ctx, NewTransaction{ProductID: "H-1", Quantity: 4, Type: models.TransactionExit})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, stockErr.Stock)
	assert.Equal(t, 4, stockErr.Requested)

	rej := AsRejection(err)
	assert.Equal(t, TitleInsufficientStock, rej.Title)
	assert.Equal(t, "No hay suficiente stock para el producto seleccionado. Stock actual: 3.", rej.Message)

	txs, err := e.store.ListTransactions(e.ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "rejected exit writes nothing")

	tx, err := e.svc.RecordTransaction(e.ctx, NewTransaction{ProductID: "H-1", Quantity: 3, Type: models.TransactionExit, Batch: " L-7 "})
	require.NoError(t, err, "stock equal to quantity is admitted")
	assert.Equal(t, "L-7", tx.Batch)
	assert.Equal(t, "REACTIVOS", tx.Subwarehouse, "defaults to the product's subwarehouse")
	assert.NotEmpty(t, tx.ID)
	assert.False(t, tx.Date.IsZero())

	assert.Equal(t, 0, e.state.Stock()["H-1"])
}

func TestExitSubwarehouseOverride(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "REACTIVOS")
	e.entry(t, "H-1", 5)

	tx, err := e.svc.RecordTransaction(e.ctx, NewTransaction{ProductID: "H-1", Quantity: 1, Type: models.TransactionExit, Subwarehouse: "URGENCIAS"})
	require.NoError(t, err)
	assert.Equal(t, "URGENCIAS", tx.Subwarehouse)
}

func TestSequentialExitsSeeEachOther(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")
	e.entry(t, "H-1", 5)

	_, err := e.svc.RecordTransaction(e.ctx, NewTransaction{ProductID: "H-1", Quantity: 4, Type: models.TransactionExit})
	require.NoError(t, err)

	_, err = e.svc.RecordTransaction(e.ctx, NewTransaction{ProductID: "H-1", Quantity: 4, Type: models.TransactionExit})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Stock)

	assert.Equal(t, 1, e.state.Stock()["H-1"])
	txs, err := e.store.ListTransactions(e.ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestConcurrentExitsAreNotSerialized(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")
	e.entry(t, "H-1", 5)

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := e.svc.RecordTransaction(e.ctx, NewTransaction{ProductID: "H-1", Quantity: 4, Type: models.TransactionExit})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	admitted := 0
	for err := range errs {
		if err == nil {
			admitted++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	require.GreaterOrEqual(t, admitted, 1)

	// sin bloqueo ambas pueden pasar la validación antes de que la otra escriba
	require.NoError(t, e.state.Refresh(e.ctx))
	assert.Equal(t, 5-4*admitted, e.state.Stock()["H-1"])
	assert.Contains(t, []int{1, -3}, e.state.Stock()["H-1"])
}

func TestDeleteTransactionRemovesMark(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")
	tx := e.entry(t, "H-1", 2)

	marked, err := e.svc.ToggleMark(e.ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, marked)
	require.True(t, e.state.IsMarked(tx.ID))

	require.NoError(t, e.svc.DeleteTransaction(e.ctx, tx.ID))
	assert.Empty(t, e.state.Transactions())
	assert.Empty(t, e.state.Marked())
}

func TestDeleteTransactionLeavesOrphanMarkOnSecondFailure(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")
	tx := e.entry(t, "H-1", 2)
	_, err := e.svc.ToggleMark(e.ctx, tx.ID)
	require.NoError(t, err)

	e.store.FailNext(store.OpNameDeleteMarked, errors.New("sin red"))
	err = e.svc.DeleteTransaction(e.ctx, tx.ID)
	assert.Equal(t, "No se pudo eliminar la transacción.", AsRejection(err).Message)

	assert.Empty(t, e.state.Transactions())
	assert.Equal(t, []string{tx.ID}, e.state.Marked())
}

func TestToggleMark(t *testing.T) {
	e := newEnv(t)
	e.product(t, "H-1", "Diluyente", "R")
	tx := e.entry(t, "H-1", 2)

	marked, err := e.svc.ToggleMark(e.ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = e.svc.ToggleMark(e.ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, marked)
	assert.False(t, e.state.IsMarked(tx.ID))

	_, err = e.svc.ToggleMark(e.ctx, "nope")
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	e.store.FailNext(store.OpNameSetMarked, errors.New("x"))
	_, err = e.svc.ToggleMark(e.ctx, tx.ID)
	assert.Equal(t, "No se pudo marcar/desmarcar la fila.", AsRejection(err).Message)
}

func TestImportRows(t *testing.T) {
	e := newEnv(t)
	e.product(t, "A123", "Diluyente", "REACTIVOS")

	res := e.svc.ImportRows(e.ctx, [][]string{
		{"ITEM", "CANTIDAD"},
		{"A123", "10"},
		{"A123", "-5"},
		{"UNKNOWN", "5"},
		{"A123"},
		{"A123", "2"},
	})

	assert.Equal(t, importer.TitleResult, res.Title)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, "2 entradas han sido registradas correctamente.", res.Message)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0].Reason, "Cantidad no válida")
	assert.Contains(t, res.Errors[1].Reason, "no encontrado")
	assert.Contains(t, res.Errors[2].Reason, "Formato incorrecto")

	txs, err := e.store.ListTransactions(e.ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, txs[0].Date, txs[1].Date, "one batch, one server timestamp")
	for _, tx := range txs {
		assert.Equal(t, models.TransactionEntry, tx.Type)
		assert.Equal(t, "REACTIVOS", tx.Subwarehouse)
	}
}

func TestImportRowsBatchFailure(t *testing.T) {
	e := newEnv(t)
	e.product(t, "A123", "Diluyente", "R")
	e.store.FailNext(store.OpNameCommitBatch, errors.New("sin red"))

	res := e.svc.ImportRows(e.ctx, [][]string{{"A123", "10"}})
	assert.Equal(t, importer.TitleResult, res.Title)
	assert.Zero(t, res.Imported)
	assert.Empty(t, res.Message)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, importer.RowError{Row: 0, Reason: "Error al guardar los datos en la base de datos."}, res.Errors[0])

	txs, err := e.store.ListTransactions(e.ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestImportRowsAllValid(t *testing.T) {
	e := newEnv(t)
	e.product(t, "A123", "Diluyente", "R")

	res := e.svc.ImportRows(e.ctx, [][]string{{"A123", "10"}})
	assert.Equal(t, importer.TitleSuccess, res.Title)
	assert.Empty(t, res.Errors)
}

func TestSeedIfEmpty(t *testing.T) {
	e := newEnv(t)

	n, err := e.svc.SeedIfEmpty(e.ctx, catalog.Products())
	require.NoError(t, err)
	assert.Equal(t, len(catalog.Products()), n)

	n, err = e.svc.SeedIfEmpty(e.ctx, catalog.Products())
	require.NoError(t, err)
	assert.Zero(t, n, "only when the collection is empty")

	count, err := e.store.CountProducts(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(catalog.Products())), count)
}

func TestSeedIfEmptyIsAtomic(t *testing.T) {
	e := newEnv(t)
	e.store.FailNext(store.OpNameCommitBatch, errors.New("sin red"))

	_, err := e.svc.SeedIfEmpty(e.ctx, catalog.Products())
	require.Error(t, err)

	count, err := e.store.CountProducts(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAsRejectionIgnoresUnknownErrors(t *testing.T) {
	assert.Nil(t, AsRejection(errors.New("otro")))
	assert.Nil(t, AsRejection(nil))
}
