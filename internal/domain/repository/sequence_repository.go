package repository

import (
	"context"
	"fmt"
	"time"
)

// Tipos de documento con numeración propia por tenant y año.
const (
	SequencePurchaseOrder = "PO"
	SequenceReceipt       = "REC"
	SequenceSalesOrder    = "SO"
)

// SequenceRepository contador monótono por (tenant, documento, año). Debe ser seguro ante concurrencia.
type SequenceRepository interface {
	Next(ctx context.Context, tenantID, document string, year int) (int64, error)
}

// NextDocumentNumber reserva el siguiente consecutivo y lo formatea como <DOC>-<año>-<0001>.
func NextDocumentNumber(ctx context.Context, seq SequenceRepository, tenantID, document string, now time.Time) (string, error) {
	year := now.Year()
	n, err := seq.Next(ctx, tenantID, document, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", document, year, n), nil
}
