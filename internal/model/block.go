// Package model defines domain models shared by the aggregation pipeline.
package model

// InstructionKind discriminates decoded instruction variants.
type InstructionKind string

// TransferKind is the only instruction kind the decoder extracts.
const TransferKind InstructionKind = "transfer"

// Instruction is one decoded instruction of a transaction. Amount is
// denominated in SOL, converted from lamports by the decoder.
type Instruction struct {
	Kind   InstructionKind `cbor:"kind" json:"kind"`
	From   string          `cbor:"from" json:"from"`
	To     string          `cbor:"to" json:"to"`
	Amount float64         `cbor:"amount" json:"amount"`
}

// Transfer builds a transfer instruction.
func Transfer(from, to string, amount float64) Instruction {
	return Instruction{Kind: TransferKind, From: from, To: to, Amount: amount}
}

// TxRecord holds the extracted semantics of one transaction. It is immutable
// once constructed.
type TxRecord struct {
	Instructions []Instruction `cbor:"instructions" json:"instructions"`
	// Metadata carries the serialized raw status metadata when the source
	// provided one, empty otherwise.
	Metadata string `cbor:"metadata,omitempty" json:"metadata,omitempty"`
}

// Block is the decoded content of one slot. Deltas holds the post-transaction
// balances contributed by the decoder. Snapshot is nil until the block is
// finalized; once written it is never recomputed.
type Block struct {
	Transactions map[string]TxRecord `cbor:"transactions" json:"transactions"`
	Deltas       map[string]uint64   `cbor:"deltas,omitempty" json:"deltas,omitempty"`
	// The snapshot keeps its field even when empty: a finalized block with
	// no balances must still read back as finalized.
	Snapshot map[string]uint64 `cbor:"snapshot" json:"snapshot,omitempty"`
}

// PartialBlock is one chunk's contribution to a Block. It shares the Block
// shape and merges associatively and commutatively with sibling partials.
type PartialBlock = Block

// NewBlock returns an empty block.
func NewBlock() Block {
	return Block{Transactions: make(map[string]TxRecord)}
}

// Finalized reports whether a balance snapshot has been attached.
func (b *Block) Finalized() bool {
	return b.Snapshot != nil
}

// AddTransaction records a decoded transaction under its message hash.
func (b *Block) AddTransaction(hash string, tx TxRecord) {
	if b.Transactions == nil {
		b.Transactions = make(map[string]TxRecord)
	}
	b.Transactions[hash] = tx
}

// AddDelta records a post-transaction balance for an account.
func (b *Block) AddDelta(account string, balance uint64) {
	if b.Deltas == nil {
		b.Deltas = make(map[string]uint64)
	}
	b.Deltas[account] = balance
}

// Merge folds another partial block into this one. Transaction maps are
// unioned; on delta key collision the other block's value wins.
func (b *Block) Merge(other Block) {
	for hash, tx := range other.Transactions {
		b.AddTransaction(hash, tx)
	}
	for account, balance := range other.Deltas {
		b.AddDelta(account, balance)
	}
}

// TransactionHashes lists the hashes of all transactions in the block.
func (b *Block) TransactionHashes() []string {
	hashes := make([]string, 0, len(b.Transactions))
	for hash := range b.Transactions {
		hashes = append(hashes, hash)
	}
	return hashes
}

// BalanceAt reads an account balance from the block's snapshot. A nil
// snapshot or an unknown account reads as zero.
func (b *Block) BalanceAt(account string) uint64 {
	if b.Snapshot == nil {
		return 0
	}
	return b.Snapshot[account]
}
