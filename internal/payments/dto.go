package payments

// ConfirmationRequest is the webhook payload delivered by the payment
// processor integration after a successful checkout.
type ConfirmationRequest struct {
	ExternalRef string `json:"external_ref"`
	OwnerID     string `json:"owner_id"`
	AmountUSD   string `json:"amount_usd"`
}

// ConfirmationResponse reports the ledger outcome back to the caller.
type ConfirmationResponse struct {
	TransactionID string `json:"transaction_id"`
	ExternalRef   string `json:"external_ref"`
	AmountUSD     string `json:"amount_usd"`
}
