package indexer

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/MANTRA-Chain/feemarket/audit"
	"github.com/MANTRA-Chain/feemarket/types"
)

const (
	KeyPrefixRecord   = 1
	KeyPrefixMismatch = 2

	// RecordKeyLength is the length of the key of a record: prefix + height
	RecordKeyLength = 1 + 8

	// MaxRecordsPerQuery bounds the number of records returned by Records
	MaxRecordsPerQuery = 10_000
)

// ErrRecordNotFound is returned when no record is indexed for the requested height.
var ErrRecordNotFound = fmt.Errorf("record not found")

var _ types.AuditIndexer = (*KVIndexer)(nil)

// KVIndexer implements an audit record indexer on a KV db.
type KVIndexer struct {
	db     dbm.DB
	logger log.Logger
	ready  atomic.Bool
}

// NewKVIndexer creates the KVIndexer
func NewKVIndexer(db dbm.DB, logger log.Logger) *KVIndexer {
	return &KVIndexer{
		db:     db,
		logger: logger,
	}
}

// IndexRecord stores the record of a block, replacing the previous one of the same height.
func (kv *KVIndexer) IndexRecord(record audit.Record) error {
	return kv.IndexRecords([]audit.Record{record})
}

// IndexRecords stores the records in a single batch.
func (kv *KVIndexer) IndexRecords(records []audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := kv.db.NewBatch()
	defer batch.Close()

	for _, record := range records {
		if record.Height < 0 {
			return fmt.Errorf("invalid height %d", record.Height)
		}

		bz, err := json.Marshal(record)
		if err != nil {
			return errorsmod.Wrapf(err, "failed to encode record of block %d", record.Height)
		}

		if err := batch.Set(RecordKey(record.Height), bz); err != nil {
			return errorsmod.Wrapf(err, "IndexRecord %d", record.Height)
		}

		if record.Match {
			err = batch.Delete(MismatchKey(record.Height))
		} else {
			err = batch.Set(MismatchKey(record.Height), []byte{1})
		}
		if err != nil {
			return errorsmod.Wrapf(err, "IndexRecord %d", record.Height)
		}
	}

	if err := batch.Write(); err != nil {
		return errorsmod.Wrapf(err, "IndexRecords, write batch")
	}

	kv.logger.Debug("indexed records", "from", records[0].Height, "to", records[len(records)-1].Height)
	return nil
}

// LastIndexedBlock returns the latest block number which was indexed before.
// Returns -1 if db is empty.
func (kv *KVIndexer) LastIndexedBlock() (int64, error) {
	return LoadLastBlock(kv.db)
}

// FirstIndexedBlock returns the first indexed block number.
// Returns -1 if db is empty.
func (kv *KVIndexer) FirstIndexedBlock() (int64, error) {
	return LoadFirstBlock(kv.db)
}

// GetByHeight returns the record of the block at the given height.
func (kv *KVIndexer) GetByHeight(height int64) (*audit.Record, error) {
	bz, err := kv.db.Get(RecordKey(height))
	if err != nil {
		return nil, errorsmod.Wrapf(err, "GetByHeight %d", height)
	}
	if len(bz) == 0 {
		return nil, errorsmod.Wrapf(ErrRecordNotFound, "height %d", height)
	}

	var record audit.Record
	if err := json.Unmarshal(bz, &record); err != nil {
		return nil, errorsmod.Wrapf(err, "GetByHeight %d", height)
	}
	return &record, nil
}

// Records returns the records of the blocks in [from, to], only the mismatching ones if mismatchOnly.
func (kv *KVIndexer) Records(from, to int64, mismatchOnly bool) ([]audit.Record, error) {
	if from < 0 || to < from {
		return nil, fmt.Errorf("invalid range [%d, %d]", from, to)
	}

	if mismatchOnly {
		return kv.mismatches(from, to)
	}

	it, err := kv.db.Iterator(RecordKey(from), RecordKey(to+1))
	if err != nil {
		return nil, errorsmod.Wrapf(err, "Records [%d, %d]", from, to)
	}
	defer it.Close()

	var records []audit.Record
	for ; it.Valid(); it.Next() {
		if len(records) >= MaxRecordsPerQuery {
			break
		}

		var record audit.Record
		if err := json.Unmarshal(it.Value(), &record); err != nil {
			return nil, errorsmod.Wrapf(err, "Records, decode key %X", it.Key())
		}
		records = append(records, record)
	}

	return records, it.Error()
}

func (kv *KVIndexer) mismatches(from, to int64) ([]audit.Record, error) {
	it, err := kv.db.Iterator(MismatchKey(from), MismatchKey(to+1))
	if err != nil {
		return nil, errorsmod.Wrapf(err, "Mismatches [%d, %d]", from, to)
	}
	defer it.Close()

	var heights []int64
	for ; it.Valid(); it.Next() {
		if len(heights) >= MaxRecordsPerQuery {
			break
		}
		heights = append(heights, parseHeightFromKey(it.Key()))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}

	records := make([]audit.Record, 0, len(heights))
	for _, height := range heights {
		record, err := kv.GetByHeight(height)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// Ready marks the indexer as caught up with the chain head.
func (kv *KVIndexer) Ready() {
	kv.ready.Store(true)
}

// IsReady returns true once the indexer caught up with the chain head.
func (kv *KVIndexer) IsReady() bool {
	return kv.ready.Load()
}

// RecordKey returns the key for the record of a block.
func RecordKey(height int64) []byte {
	return append([]byte{KeyPrefixRecord}, sdk.Uint64ToBigEndian(uint64(height))...)
}

// MismatchKey returns the key marking the record of a block as mismatching.
func MismatchKey(height int64) []byte {
	return append([]byte{KeyPrefixMismatch}, sdk.Uint64ToBigEndian(uint64(height))...)
}

// LoadLastBlock returns the latest indexed block number, returns -1 if db is empty
func LoadLastBlock(db dbm.DB) (int64, error) {
	it, err := db.ReverseIterator([]byte{KeyPrefixRecord}, []byte{KeyPrefixRecord + 1})
	if err != nil {
		return 0, errorsmod.Wrap(err, "LoadLastBlock")
	}
	defer it.Close()
	if !it.Valid() {
		return -1, nil
	}
	return parseHeightFromKey(it.Key()), nil
}

// LoadFirstBlock loads the first indexed block, returns -1 if db is empty
func LoadFirstBlock(db dbm.DB) (int64, error) {
	it, err := db.Iterator([]byte{KeyPrefixRecord}, []byte{KeyPrefixRecord + 1})
	if err != nil {
		return 0, errorsmod.Wrap(err, "LoadFirstBlock")
	}
	defer it.Close()
	if !it.Valid() {
		return -1, nil
	}
	return parseHeightFromKey(it.Key()), nil
}

// parseHeightFromKey parses the block number from a record or mismatch key
func parseHeightFromKey(key []byte) int64 {
	return int64(sdk.BigEndianToUint64(key[1:RecordKeyLength]))
}
