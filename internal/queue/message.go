package queue

import (
	"fmt"
	"strings"

	"github.com/pohualizcalli/academy-admin/internal/domain"
)

// BatchMessage is the queue payload for diploma generation. Field names are
// part of the worker contract and must not change.
type BatchMessage struct {
	CreatedBy string `json:"created_by"`
	FileName  string `json:"file_name"`
	CSVURL    string `json:"csv_url"`
	BatchID   int    `json:"batch_id"`
}

func (m BatchMessage) Validate() error {
	if m.BatchID <= 0 {
		return fmt.Errorf("%w: batch_id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(m.CSVURL) == "" {
		return fmt.Errorf("%w: csv_url is required", domain.ErrValidation)
	}
	if strings.TrimSpace(m.FileName) == "" {
		return fmt.Errorf("%w: file_name is required", domain.ErrValidation)
	}
	return nil
}
