package domain

import (
	"fmt"
	"strings"
	"time"
)

// BatchStatus represents the generation lifecycle state of a diploma batch.
type BatchStatus string

const (
	BatchStatusReceived   BatchStatus = "received"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// legacyStatusAliases maps the Spanish wire values still emitted by the
// deployed worker fleet onto the canonical statuses.
var legacyStatusAliases = map[string]BatchStatus{
	"recibido":   BatchStatusReceived,
	"procesando": BatchStatusProcessing,
	"completado": BatchStatusCompleted,
	"error":      BatchStatusFailed,
}

func (s BatchStatus) String() string { return string(s) }

func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusReceived, BatchStatusProcessing, BatchStatusCompleted, BatchStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are accepted from s.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

func ParseBatchStatus(s string) (BatchStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := legacyStatusAliases[normalized]; ok {
		return alias, nil
	}
	st := BatchStatus(normalized)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid batch status %q", ErrValidation, s)
	}
	return st, nil
}

// DiplomaBatch is one submitted roster and its generation lifecycle.
// CSVURL points at the uploaded roster in object storage; ZipURL points at the
// generated result bundle and is set only once the batch completes.
type DiplomaBatch struct {
	ID           int
	FileName     string
	Status       BatchStatus
	TotalRecords int
	CSVURL       *string
	ZipURL       *string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (b *DiplomaBatch) Validate() error {
	if strings.TrimSpace(b.FileName) == "" {
		return fmt.Errorf("%w: fileName is required", ErrValidation)
	}
	if !b.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, b.Status)
	}
	if b.TotalRecords < 0 {
		return fmt.Errorf("%w: totalRecords must not be negative", ErrValidation)
	}
	return nil
}

// BatchPatch is the allow-listed partial update the worker callback may apply.
// Nil fields are left untouched; UpdatedAt is always set server-side.
// The Clear flags null the URL columns, which the pointer fields cannot
// express: nil there means "leave alone", not "set to null".
type BatchPatch struct {
	Status       *BatchStatus
	ZipURL       *string
	CSVURL       *string
	FileName     *string
	TotalRecords *int

	ClearZipURL bool
	ClearCSVURL bool
}

func (p BatchPatch) IsEmpty() bool {
	return p.Status == nil && p.ZipURL == nil && p.CSVURL == nil &&
		p.FileName == nil && p.TotalRecords == nil &&
		!p.ClearZipURL && !p.ClearCSVURL
}
