package model

// PoolState is a storable snapshot of a pool's committed state.
type PoolState struct {
	Pool               string `json:"pool"`
	Token0             string `json:"token0"`
	Token1             string `json:"token1"`
	Reserve0           string `json:"reserve0"`
	Reserve1           string `json:"reserve1"`
	TotalShares        string `json:"total_shares"`
	Price0Cumulative   string `json:"price0_cumulative"`
	Price1Cumulative   string `json:"price1_cumulative"`
	BlockTimestampLast uint32 `json:"block_timestamp_last"`
}
