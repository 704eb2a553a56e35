package osmosis

// QuoteResponse is the part of the sqs custom direct quote body the client
// reads. Route details are ignored, the route is fixed by the caller.
type QuoteResponse struct {
	AmountIn     quoteCoin `json:"amount_in"`
	AmountOut    string    `json:"amount_out"`
	EffectiveFee string    `json:"effective_fee"`
	PriceImpact  string    `json:"price_impact"`
}

// sqs renders amounts as strings
type quoteCoin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}
