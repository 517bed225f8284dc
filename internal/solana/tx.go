package solana

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/mr-tron/base58"
)

// AccountMeta describes how an instruction touches one account.
type AccountMeta struct {
	Pubkey     string
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is a signed legacy transaction ready for submission.
type Transaction struct {
	// Signature is the base58 first signature, which doubles as the
	// transaction ID.
	Signature string
	raw       []byte
}

// Base64 returns the wire encoding accepted by sendTransaction.
func (t *Transaction) Base64() string {
	return base64.StdEncoding.EncodeToString(t.raw)
}

// Base58 returns the base58 wire encoding used by relay services.
func (t *Transaction) Base58() string {
	return base58.Encode(t.raw)
}

// BuildTransaction compiles instructions into a legacy message, signs it with
// the payer and returns the serialized transaction. The payer is always the
// first account and the only signer.
func BuildTransaction(payer *Wallet, recentBlockhash string, instructions []Instruction) (*Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("no instructions")
	}

	msg, err := compileMessage(payer.PublicKey(), recentBlockhash, instructions)
	if err != nil {
		return nil, err
	}

	sig := payer.Sign(msg)

	// Wire format: compact array of signatures, then the message.
	raw := make([]byte, 0, 1+len(sig)+len(msg))
	raw = appendCompactU16(raw, 1)
	raw = append(raw, sig...)
	raw = append(raw, msg...)

	return &Transaction{Signature: base58.Encode(sig), raw: raw}, nil
}

// compiledAccount tracks an account's role across all instructions.
type compiledAccount struct {
	pubkey   string
	signer   bool
	writable bool
}

// compileMessage builds the legacy message bytes: header, account keys,
// blockhash, compiled instructions.
func compileMessage(payer, recentBlockhash string, instructions []Instruction) ([]byte, error) {
	// Merge account roles. The payer is signer+writable by definition;
	// program IDs are readonly non-signers.
	roles := map[string]*compiledAccount{
		payer: {pubkey: payer, signer: true, writable: true},
	}
	order := []string{payer}

	touch := func(pubkey string, signer, writable bool) {
		acc, ok := roles[pubkey]
		if !ok {
			acc = &compiledAccount{pubkey: pubkey}
			roles[pubkey] = acc
			order = append(order, pubkey)
		}
		acc.signer = acc.signer || signer
		acc.writable = acc.writable || writable
	}

	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			touch(meta.Pubkey, meta.IsSigner, meta.IsWritable)
		}
		touch(ix.ProgramID, false, false)
	}

	// Sort into the required sections: payer first, then remaining
	// signer+writable, signer+readonly, nonsigner+writable,
	// nonsigner+readonly. Insertion order breaks ties for determinism.
	rank := func(a *compiledAccount) int {
		switch {
		case a.pubkey == payer:
			return 0
		case a.signer && a.writable:
			return 1
		case a.signer:
			return 2
		case a.writable:
			return 3
		default:
			return 4
		}
	}
	pos := make(map[string]int, len(order))
	for i, k := range order {
		pos[k] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := rank(roles[order[i]]), rank(roles[order[j]])
		if ri != rj {
			return ri < rj
		}
		return pos[order[i]] < pos[order[j]]
	})

	var numSigners, numReadonlySigned, numReadonlyUnsigned int
	index := make(map[string]int, len(order))
	keys := make([][]byte, 0, len(order))
	for i, k := range order {
		index[k] = i
		acc := roles[k]
		if acc.signer {
			numSigners++
			if !acc.writable {
				numReadonlySigned++
			}
		} else if !acc.writable {
			numReadonlyUnsigned++
		}
		raw, err := base58.Decode(k)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("invalid account key %s", k)
		}
		keys = append(keys, raw)
	}

	blockhashBytes, err := base58.Decode(recentBlockhash)
	if err != nil || len(blockhashBytes) != 32 {
		return nil, fmt.Errorf("invalid blockhash %s", recentBlockhash)
	}

	msg := make([]byte, 0, 256)
	msg = append(msg, byte(numSigners), byte(numReadonlySigned), byte(numReadonlyUnsigned))
	msg = appendCompactU16(msg, len(keys))
	for _, k := range keys {
		msg = append(msg, k...)
	}
	msg = append(msg, blockhashBytes...)

	msg = appendCompactU16(msg, len(instructions))
	for _, ix := range instructions {
		msg = append(msg, byte(index[ix.ProgramID]))
		msg = appendCompactU16(msg, len(ix.Accounts))
		for _, meta := range ix.Accounts {
			msg = append(msg, byte(index[meta.Pubkey]))
		}
		msg = appendCompactU16(msg, len(ix.Data))
		msg = append(msg, ix.Data...)
	}

	return msg, nil
}

// appendCompactU16 appends a compact-u16 (shortvec) length prefix.
func appendCompactU16(buf []byte, n int) []byte {
	for {
		if n < 0x80 {
			return append(buf, byte(n))
		}
		buf = append(buf, byte(n&0x7f)|0x80)
		n >>= 7
	}
}
