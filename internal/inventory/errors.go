package inventory

import (
	"errors"
	"fmt"
	"net/http"
)

// Errores de validación y de reglas de negocio. Todos se detectan antes de escribir.
var (
	ErrRequiredFields         = errors.New("required fields missing")
	ErrDuplicateProduct       = errors.New("duplicate product id")
	ErrProductNotFound        = errors.New("product not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
	ErrInvalidType            = errors.New("invalid transaction type")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrProductHasTransactions = errors.New("product has transactions")
)

// Textos que ve el usuario
const (
	MsgRequiredFields         = "Todos los campos son obligatorios."
	MsgDuplicateProduct       = "El ITEM (código) ya existe. Por favor, ingrese uno diferente."
	MsgProductNotFound        = "Producto no encontrado."
	MsgTransactionNotFound    = "Transacción no encontrada."
	MsgInvalidQuantity        = "La cantidad debe ser un número entero mayor que cero."
	MsgInvalidType            = "Tipo de transacción inválido: use ENTRY o EXIT."
	MsgProductHasTransactions = "Este producto no se puede eliminar porque tiene transacciones asociadas. Elimine primero las transacciones."
)

const (
	TitleInsufficientStock = "Stock Insuficiente"
	TitleDeleteBlocked     = "Eliminación Bloqueada"
	TitleConfirmDelete     = "Confirmar Eliminación"
	TitleError             = "Error"
	TitleSuccess           = "Éxito"

	ConfirmDeleteProduct     = "¿Está seguro de que desea eliminar este producto? Esta acción no se puede deshacer."
	ConfirmDeleteTransaction = "¿Está seguro de que desea eliminar esta transacción? Esta acción no se puede deshacer."

	MsgProductAdded   = "Producto agregado correctamente."
	MsgProductUpdated = "Producto actualizado correctamente."
)

// Mensajes genéricos de fallo remoto por operación
const (
	msgRecordFailed        = "No se pudo registrar la transacción."
	msgDeleteTxFailed      = "No se pudo eliminar la transacción."
	msgToggleMarkFailed    = "No se pudo marcar/desmarcar la fila."
	msgAddProductFailed    = "No se pudo agregar el producto."
	msgUpdateProductFailed = "No se pudo actualizar el producto."
	msgDeleteProductFailed = "No se pudo eliminar el producto."
	msgSeedFailed          = "No se pudo sembrar el catálogo."
)

// InsufficientStockError: salida rechazada porque stock < cantidad
type InsufficientStockError struct {
	ProductID string
	Stock     int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("No hay suficiente stock para el producto seleccionado. Stock actual: %d.", e.Stock)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// RemoteError: fallo del store; Message es el texto genérico que ve el usuario
type RemoteError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func remote(op, msg string, err error) error {
	return &RemoteError{Op: op, Message: msg, Err: err}
}

// Rejection: error listo para mostrarse en un diálogo (código HTTP, título y mensaje)
type Rejection struct {
	Status  int
	Title   string
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) StatusCode() int { return r.Status }

// AsRejection: traduce un error del servicio; nil si no es un error de dominio
func AsRejection(err error) *Rejection {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej
	}

	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return &Rejection{Status: http.StatusConflict, Title: TitleInsufficientStock, Message: stockErr.Error()}
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return &Rejection{Status: http.StatusInternalServerError, Title: TitleError, Message: remoteErr.Message}
	}

	for _, m := range sentinelRejections {
		if errors.Is(err, m.err) {
			return &Rejection{Status: m.status, Title: m.title, Message: m.message}
		}
	}
	return nil
}

var sentinelRejections = []struct {
	err     error
	status  int
	title   string
	message string
}{
	{ErrProductHasTransactions, http.StatusConflict, TitleDeleteBlocked, MsgProductHasTransactions},
	{ErrDuplicateProduct, http.StatusConflict, TitleError, MsgDuplicateProduct},
	{ErrProductNotFound, http.StatusNotFound, TitleError, MsgProductNotFound},
	{ErrTransactionNotFound, http.StatusNotFound, TitleError, MsgTransactionNotFound},
	{ErrRequiredFields, http.StatusBadRequest, TitleError, MsgRequiredFields},
	{ErrInvalidQuantity, http.StatusBadRequest, TitleError, MsgInvalidQuantity},
	{ErrInvalidType, http.StatusBadRequest, TitleError, MsgInvalidType},
}
