package types

// feemarket module events
const (
	EventTypeFeeMarket = "fee_market"
	EventTypeBlockGas  = "block_gas"

	AttributeKeyBaseFee    = "base_fee"
	AttributeKeyHeight     = "height"
	AttributeKeyAmount     = "amount"
	AttributeValueCategory = ModuleName
)
