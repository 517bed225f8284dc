package solana

// Well-known mainnet program and account addresses.
const (
	SystemProgramID        = "11111111111111111111111111111111"
	TokenProgramID         = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgram = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	ComputeBudgetProgramID = "ComputeBudget111111111111111111111111111111"
	MetaplexMetadataID     = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	RentSysvarID           = "SysvarRent111111111111111111111111111111111"

	RaydiumAMMV4ProgramID  = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumAuthorityID     = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	OpenBookProgramID      = "srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX"

	WSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)
