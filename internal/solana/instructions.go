package solana

import (
	"encoding/binary"

	"solana-sniper/internal/domain"
)

// SystemTransfer moves lamports between system accounts.
func SystemTransfer(from, to string, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // transfer
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsWritable: true},
		},
		Data: data,
	}
}

// SetComputeUnitLimit caps the compute units a transaction may consume.
func SetComputeUnitLimit(units uint32) Instruction {
	data := make([]byte, 5)
	data[0] = 2
	binary.LittleEndian.PutUint32(data[1:5], units)
	return Instruction{ProgramID: ComputeBudgetProgramID, Data: data}
}

// SetComputeUnitPrice sets the priority fee in micro-lamports per compute
// unit.
func SetComputeUnitPrice(microLamports uint64) Instruction {
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:9], microLamports)
	return Instruction{ProgramID: ComputeBudgetProgramID, Data: data}
}

// CreateATAIdempotent creates the associated token account for owner/mint if
// it does not already exist.
func CreateATAIdempotent(payer, ata, owner, mint string) Instruction {
	return Instruction{
		ProgramID: AssociatedTokenProgram,
		Accounts: []AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: ata, IsWritable: true},
			{Pubkey: owner},
			{Pubkey: mint},
			{Pubkey: SystemProgramID},
			{Pubkey: TokenProgramID},
		},
		Data: []byte{1}, // CreateIdempotent
	}
}

// CloseTokenAccount closes a token account, reclaiming its rent lamports.
func CloseTokenAccount(account, destination, owner string) Instruction {
	return Instruction{
		ProgramID: TokenProgramID,
		Accounts: []AccountMeta{
			{Pubkey: account, IsWritable: true},
			{Pubkey: destination, IsWritable: true},
			{Pubkey: owner, IsSigner: true},
		},
		Data: []byte{9}, // CloseAccount
	}
}

// RaydiumSwapBaseIn builds a fixed-input swap against a Raydium AMM v4 pool.
// userSource is debited amountIn; userDest receives at least minAmountOut.
func RaydiumSwapBaseIn(keys *domain.PoolKeys, userSource, userDest, owner string, amountIn, minAmountOut uint64) Instruction {
	data := make([]byte, 17)
	data[0] = 9 // swap_base_in
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	return Instruction{
		ProgramID: RaydiumAMMV4ProgramID,
		Accounts: []AccountMeta{
			{Pubkey: TokenProgramID},
			{Pubkey: keys.ID, IsWritable: true},
			{Pubkey: RaydiumAuthorityID},
			{Pubkey: keys.OpenOrders, IsWritable: true},
			{Pubkey: keys.TargetOrders, IsWritable: true},
			{Pubkey: keys.BaseVault, IsWritable: true},
			{Pubkey: keys.QuoteVault, IsWritable: true},
			{Pubkey: keys.MarketProgramID},
			{Pubkey: keys.MarketID, IsWritable: true},
			{Pubkey: keys.MarketBids, IsWritable: true},
			{Pubkey: keys.MarketAsks, IsWritable: true},
			{Pubkey: keys.MarketEventQueue, IsWritable: true},
			{Pubkey: keys.MarketBaseVault, IsWritable: true},
			{Pubkey: keys.MarketQuoteVault, IsWritable: true},
			{Pubkey: keys.MarketVaultSigner},
			{Pubkey: userSource, IsWritable: true},
			{Pubkey: userDest, IsWritable: true},
			{Pubkey: owner, IsSigner: true},
		},
		Data: data,
	}
}
