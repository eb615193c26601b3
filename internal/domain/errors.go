package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas). Cada uno es una "clase" de error;
// los casos de uso devuelven *Error con un mensaje específico que envuelve a la clase.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrInvalidState       = errors.New("operación no permitida en el estado actual")
	ErrInvariantViolation = errors.New("la operación viola un invariante del inventario")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Error es un error de dominio con mensaje para el cliente; Unwrap devuelve la clase.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Validation: entrada mal formada o faltante.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// InvalidState: la operación no está permitida desde el estado actual del agregado.
func InvalidState(format string, args ...any) error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NotFound: referencia inexistente o de otro tenant.
func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Invariant: la operación rompería un invariante del modelo (sobre-recepción, etc).
func Invariant(format string, args ...any) error {
	return &Error{Kind: ErrInvariantViolation, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStock: el movimiento dejaría el stock en negativo.
func InsufficientStock(format string, args ...any) error {
	return &Error{Kind: ErrInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

// Conflict: otro proceso modificó el recurso (token de concurrencia).
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Message devuelve el mensaje de cliente si err es un *Error, o err.Error() en otro caso.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
