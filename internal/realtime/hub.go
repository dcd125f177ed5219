package realtime

import (
	"sync"
)

// Colecciones observables
const (
	Products     = "products"
	Transactions = "transactions"
	MarkedRows   = "markedRows"
)

// Collections: las tres colecciones con suscripción en vivo
var Collections = []string{Products, Transactions, MarkedRows}

// Change: aviso de que una colección cambió. Los suscriptores vuelven a leer la colección completa.
type Change struct {
	Collection string `json:"collection"`
	Origin     string `json:"origin,omitempty"` // instancia que originó el cambio (puente Redis)
}

// Hub: fan-out de cambios a suscriptores locales.
// Cada suscriptor tiene un buffer de 1; si ya hay un aviso pendiente el nuevo se descarta,
// ya que el suscriptor relee la colección completa de todos modos.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]map[int]chan Change
	next       int
	forwarders []func(Change)
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int]chan Change),
	}
}

// Subscribe: devuelve el canal de avisos y la función para cancelar la suscripción
func (h *Hub) Subscribe(collection string) (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++

	ch := make(chan Change, 1)
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]chan Change)
	}
	h.subs[collection][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[collection]; ok {
				delete(set, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish: entrega local y reenvío a los puentes registrados
func (h *Hub) Publish(c Change) {
	h.Deliver(c)

	h.mu.RLock()
	forwarders := append([]func(Change){}, h.forwarders...)
	h.mu.RUnlock()

	for _, fwd := range forwarders {
		fwd(c)
	}
}

// Deliver: solo entrega local (usado por el puente para cambios remotos)
func (h *Hub) Deliver(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[c.Collection] {
		select {
		case ch <- c:
		default:
		}
	}
}

// Forward: registra una función que recibe cada cambio publicado localmente
func (h *Hub) Forward(fn func(Change)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwarders = append(h.forwarders, fn)
}

// Subscribers: cantidad de suscriptores activos de una colección
func (h *Hub) Subscribers(collection string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection])
}
