package actions

// Compute units per action, scaled by the state each one touches.
const (
	InitializeMarketComputeUnits uint64 = 100
	InitializePoolsComputeUnits  uint64 = 150
	PlaceBetComputeUnits         uint64 = 50
	RedeemComputeUnits           uint64 = 75
	RefundComputeUnits           uint64 = 75
	ResolveComputeUnits          uint64 = 75
	CancelMarketComputeUnits     uint64 = 100
	FinalizeMarketComputeUnits   uint64 = 100
	PublishPriceComputeUnits     uint64 = 25
)
