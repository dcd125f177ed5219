package ledger

import (
	"math/rand"
	"testing"

	"inventario-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func entry(id string, q int) models.Transaction {
	return models.Transaction{ProductID: id, Quantity: q, Type: models.TransactionEntry}
}

func exit(id string, q int) models.Transaction {
	return models.Transaction{ProductID: id, Quantity: q, Type: models.TransactionExit}
}

func TestStockFold(t *testing.T) {
	products := []models.Product{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	txs := []models.Transaction{entry("A", 10), exit("A", 3), entry("B", 2), exit("B", 5), entry("A", 1)}

	stock := Stock(products, txs)
	assert.Equal(t, 8, stock["A"])
	assert.Equal(t, -3, stock["B"], "no non-negative invariant once accepted")
	assert.Equal(t, 0, stock["C"])
}

func TestStockUnknownProductAccumulates(t *testing.T) {
	stock := Stock([]models.Product{{ID: "A"}}, []models.Transaction{entry("GHOST", 4)})
	assert.Equal(t, 4, stock["GHOST"])

	rows := WithStock([]models.Product{{ID: "A"}}, stock)
	assert.Len(t, rows, 1, "unknown ids are dropped from display")
	assert.Equal(t, "A", rows[0].ID)
}

func TestStockIsOrderIndependent(t *testing.T) {
	products := []models.Product{{ID: "A"}, {ID: "B"}}
	txs := []models.Transaction{
		entry("A", 7), exit("A", 2), entry("B", 9), exit("B", 4), exit("A", 1), entry("B", 1),
	}
	want := Stock(products, txs)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Transaction(nil), txs...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Stock(products, shuffled))
	}
}

func TestStockEqualsEntriesMinusExits(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	ids := []string{"A", "B", "C"}
	var txs []models.Transaction
	for i := 0; i < 200; i++ {
		id := ids[r.Intn(len(ids))]
		q := r.Intn(20) + 1
		if r.Intn(2) == 0 {
			txs = append(txs, entry(id, q))
		} else {
			txs = append(txs, exit(id, q))
		}
	}

	stock := Stock([]models.Product{{ID: "A"}, {ID: "B"}, {ID: "C"}}, txs)
	for _, id := range ids {
		in, out := 0, 0
		for _, t := range txs {
			if t.ProductID != id {
				continue
			}
			if t.Type == models.TransactionEntry {
				in += t.Quantity
			} else {
				out += t.Quantity
			}
		}
		assert.Equal(t, in-out, stock[id], id)
	}
}

func TestAddingTransactionCommutesWithFold(t *testing.T) {
	products := []models.Product{{ID: "A"}}
	txs := []models.Transaction{entry("A", 5), exit("A", 2)}
	extra := exit("A", 1)

	before := Stock(products, txs)
	after := Stock(products, append(txs, extra))
	assert.Equal(t, before["A"]+Delta(extra), after["A"])
}
