package model

import "encoding/json"

// RawTransaction is one transaction of a fetched block before decoding:
// the binary wire payload plus the raw status metadata, nil when the source
// omitted it.
type RawTransaction struct {
	Payload []byte
	Meta    json.RawMessage
}

// ParsedChunk is one decoded chunk of a block, sent from the decode workers
// to the reassembler.
type ParsedChunk struct {
	Slot        uint64
	ChunkIndex  uint64
	TotalChunks uint64
	Partial     PartialBlock
}

// CompletedBlock is a fully reassembled block, sent from the reassembler to
// the finalization store.
type CompletedBlock struct {
	Slot  uint64
	Block Block
}
