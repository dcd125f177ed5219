// Package dashboard mantiene en memoria las tres colecciones observadas (productos,
// transacciones, filas marcadas). Cada colección tiene su propia suscripción: ante un aviso
// se relee la colección completa y se reemplaza entera; el stock se deriva de ahí.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"inventario-backend/internal/ledger"
	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"

	"github.com/sirupsen/logrus"
)

// Source: consultas completas de cada colección (store.Store)
type Source interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListMarked(ctx context.Context) ([]string, error)
}

// Subscriber: origen de avisos de cambio (realtime.Hub)
type Subscriber interface {
	Subscribe(collection string) (<-chan realtime.Change, func())
}

type State struct {
	src Source
	hub Subscriber
	log *logrus.Logger

	mu           sync.RWMutex
	products     []models.Product
	transactions []models.Transaction
	marked       map[string]bool

	// lecturas por colección: issued se asigna al empezar, applied es la última aplicada.
	// Una lectura más vieja que la aplicada se descarta.
	issued  map[string]uint64
	applied map[string]uint64

	version atomic.Uint64
}

// Snapshot: las tres colecciones y el stock derivado en un mismo instante
type Snapshot struct {
	Products     []models.Product     `json:"products"`
	Transactions []models.Transaction `json:"transactions"`
	Marked       []string             `json:"marked"`
	Stock        map[string]int       `json:"stock"`
}

func New(src Source, hub Subscriber, log *logrus.Logger) *State {
	return &State{
		src:          src,
		hub:          hub,
		log:          log,
		products:     []models.Product{},
		transactions: []models.Transaction{},
		marked:       map[string]bool{},
		issued:       map[string]uint64{},
		applied:      map[string]uint64{},
	}
}

// Refresh: carga inicial de las tres colecciones; devuelve el primer error
func (s *State) Refresh(ctx context.Context) error {
	return s.Reload(ctx, realtime.Collections...)
}

// Reload: relectura sincrónica de las colecciones indicadas. El servicio la llama después
// de cada escritura para que la siguiente validación vea el resultado.
func (s *State) Reload(ctx context.Context, collections ...string) error {
	var first error
	for _, c := range collections {
		if err := s.reload(ctx, c); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Start: una suscripción independiente por colección. Se suscribe antes de volver,
// así ningún cambio posterior a Start se pierde. Termina al cancelar ctx.
func (s *State) Start(ctx context.Context) {
	for _, c := range realtime.Collections {
		ch, cancel := s.hub.Subscribe(c)
		go s.watch(ctx, c, ch, cancel)
	}
}

func (s *State) watch(ctx context.Context, collection string, ch <-chan realtime.Change, cancel func()) {
	defer cancel()

	_ = s.reload(ctx, collection)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			_ = s.reload(ctx, collection)
		}
	}
}

func (s *State) ticket(collection string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[collection]++
	return s.issued[collection]
}

// apply: reemplaza la colección solo si la lectura es más reciente que la ya aplicada
func (s *State) apply(collection string, ticket uint64, replace func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket <= s.applied[collection] {
		return
	}
	s.applied[collection] = ticket
	replace()
}

// reload: relee la colección; si falla se conserva el estado anterior
func (s *State) reload(ctx context.Context, collection string) error {
	ticket := s.ticket(collection)

	var err error
	switch collection {
	case realtime.Products:
		var products []models.Product
		if products, err = s.src.ListProducts(ctx); err == nil {
			s.apply(collection, ticket, func() { s.products = products })
		}
	case realtime.Transactions:
		var txs []models.Transaction
		if txs, err = s.src.ListTransactions(ctx); err == nil {
			s.apply(collection, ticket, func() { s.transactions = txs })
		}
	case realtime.MarkedRows:
		var ids []string
		if ids, err = s.src.ListMarked(ctx); err == nil {
			marked := make(map[string]bool, len(ids))
			for _, id := range ids {
				marked[id] = true
			}
			s.apply(collection, ticket, func() { s.marked = marked })
		}
	default:
		err = fmt.Errorf("colección desconocida %q", collection)
	}

	if err != nil {
		s.log.WithError(err).WithField("collection", collection).Error("no se pudo leer la colección; se mantiene el estado anterior")
		return err
	}
	s.version.Add(1)
	return nil
}

// Version: cantidad de recargas exitosas
func (s *State) Version() uint64 {
	return s.version.Load()
}

func (s *State) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProducts(s.products)
}

func (s *State) Transactions() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTransactions(s.transactions)
}

func (s *State) IsMarked(transactionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marked[transactionID]
}

// Marked: IDs marcados, ordenados
func (s *State) Marked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return markedIDs(s.marked)
}

func markedIDs(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *State) Product(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *State) ProductMap() map[string]models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]models.Product, len(s.products))
	for _, p := range s.products {
		m[p.ID] = p
	}
	return m
}

// Stock: stock derivado de las colecciones actuales
func (s *State) Stock() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.Stock(s.products, s.transactions)
}

func (s *State) ProductsWithStock() []ledger.ProductWithStock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.WithStock(s.products, ledger.Stock(s.products, s.transactions))
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Products:     copyProducts(s.products),
		Transactions: copyTransactions(s.transactions),
		Marked:       markedIDs(s.marked),
		Stock:        ledger.Stock(s.products, s.transactions),
	}
}

func copyProducts(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	copy(out, in)
	return out
}

func copyTransactions(in []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(in))
	copy(out, in)
	return out
}
