package types

import (
	"github.com/MANTRA-Chain/feemarket/audit"
)

// AuditIndexer defines the interface of the store of audit records.
type AuditIndexer interface {
	// LastIndexedBlock returns -1 if indexer db is empty
	LastIndexedBlock() (int64, error)
	// FirstIndexedBlock returns -1 if indexer db is empty
	FirstIndexedBlock() (int64, error)

	// IndexRecord stores the record of a block, replacing any previous record of the same height.
	IndexRecord(record audit.Record) error
	// IndexRecords stores the records atomically.
	IndexRecords(records []audit.Record) error

	// GetByHeight returns the record of the block at the given height.
	GetByHeight(height int64) (*audit.Record, error)
	// Records returns the records in [from, to], only the mismatching ones if mismatchOnly.
	Records(from, to int64, mismatchOnly bool) ([]audit.Record, error)

	// Ready marks the indexer as caught up with the chain head.
	Ready()
	// IsReady returns true once the indexer caught up with the chain head.
	IsReady() bool
}
