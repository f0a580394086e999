// Package decoder turns chunks of raw transactions into partial blocks.
package decoder

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/zktony/solana-agg/internal/model"
)

const (
	// systemProgramKey is the base58 system program id; transfers live there.
	systemProgramKey = "11111111111111111111111111111111"
	// transferDiscriminant marks a transfer in the instruction data.
	transferDiscriminant = 2
	// transferAmountOffset is where the little-endian lamport amount starts.
	transferAmountOffset = 4
	transferAmountSize   = 8

	lamportsPerSol = 1_000_000_000
)

// placeholderKey substitutes account keys referenced by an out-of-range index.
var placeholderKey = base58.Encode(bytes.Repeat([]byte{1}, publicKeyLength))

var systemProgramID = mustDecodeBase58(systemProgramKey)

func mustDecodeBase58(s string) []byte {
	b, err := base58.Decode(s)
	if err != nil {
		panic("decoder: invalid base58 constant: " + err.Error())
	}
	return b
}

// txMeta is the slice of raw status metadata the balance heuristic needs.
type txMeta struct {
	PostBalances []uint64 `json:"postBalances"`
}

// DecodeChunk decodes one chunk of raw transactions into a partial block
// keyed by transaction message hash. A transaction that fails to decode
// contributes nothing; malformed status metadata is a structural error and
// fails the whole chunk.
func DecodeChunk(logger *zap.Logger, txs []model.RawTransaction) (model.PartialBlock, error) {
	partial := model.NewBlock()

	for i, tx := range txs {
		msg, err := parseTransaction(tx.Payload)
		if err != nil {
			logger.Debug("skipping undecodable transaction",
				zap.Int("index", i), zap.Error(err))
			continue
		}

		instructions, err := decodeInstructions(logger, msg)
		if err != nil {
			logger.Debug("skipping transaction with undecodable instructions",
				zap.Int("index", i), zap.Error(err))
			continue
		}

		record := model.TxRecord{Instructions: instructions}
		if tx.Meta != nil {
			var meta txMeta
			if err := json.Unmarshal(tx.Meta, &meta); err != nil {
				return model.PartialBlock{}, fmt.Errorf("transaction %d: decode metadata: %w", i, err)
			}
			applyPostBalances(&partial, msg, meta)
			record.Metadata = string(tx.Meta)
		}

		partial.AddTransaction(messageHash(msg), record)
	}

	return partial, nil
}

// messageHash keys a transaction by the hash of its message bytes.
func messageHash(msg *wireMessage) string {
	sum := sha256.Sum256(msg.raw)
	return base58.Encode(sum[:])
}

// applyPostBalances records the post-transaction balances of the first two
// account keys. This assumes simple two-party transfers where fee payer and
// recipient lead the account table.
func applyPostBalances(partial *model.PartialBlock, msg *wireMessage, meta txMeta) {
	for i := 0; i < 2 && i < len(msg.accountKeys) && i < len(meta.PostBalances); i++ {
		partial.AddDelta(base58.Encode(msg.accountKeys[i]), meta.PostBalances[i])
	}
}

func decodeInstructions(logger *zap.Logger, msg *wireMessage) ([]model.Instruction, error) {
	instructions := make([]model.Instruction, 0)
	for _, ins := range msg.instructions {
		isTransfer, err := isTransferInstruction(msg, ins)
		if err != nil {
			return nil, err
		}
		if !isTransfer {
			continue
		}
		decoded, err := decodeTransferInstruction(logger, msg, ins)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, decoded)
	}
	return instructions, nil
}

func isTransferInstruction(msg *wireMessage, ins compiledInstruction) (bool, error) {
	if int(ins.programIDIndex) >= len(msg.accountKeys) {
		return false, fmt.Errorf("program id index %d out of range", ins.programIDIndex)
	}
	if len(ins.data) == 0 {
		return false, nil
	}
	programID := msg.accountKeys[ins.programIDIndex]
	return bytes.Equal(programID, systemProgramID) && ins.data[0] == transferDiscriminant, nil
}

func decodeTransferInstruction(logger *zap.Logger, msg *wireMessage, ins compiledInstruction) (model.Instruction, error) {
	if len(ins.accounts) < 2 {
		return model.Instruction{}, fmt.Errorf("transfer carries %d account indexes, want 2", len(ins.accounts))
	}
	if len(ins.data) < transferAmountOffset+transferAmountSize {
		return model.Instruction{}, fmt.Errorf("transfer data too short: %d bytes", len(ins.data))
	}

	from := resolveKey(msg, ins.accounts[0])
	to := resolveKey(msg, ins.accounts[1])

	lamports := binary.LittleEndian.Uint64(ins.data[transferAmountOffset : transferAmountOffset+transferAmountSize])
	amount := float64(lamports) / lamportsPerSol

	logger.Debug("decoded transfer",
		zap.Float64("sol", amount), zap.String("from", from), zap.String("to", to))

	return model.Transfer(from, to, amount), nil
}

// resolveKey maps an account index to its base58 key, falling back to the
// deterministic placeholder on an out-of-range index.
func resolveKey(msg *wireMessage, index uint8) string {
	if int(index) >= len(msg.accountKeys) {
		return placeholderKey
	}
	return base58.Encode(msg.accountKeys[index])
}
