package model

const (
	PartyKindCustomer = "customer"
	PartyKindSupplier = "supplier"
)

// Party is a customer or supplier attached to a bill. ID is nil until the
// backend has persisted the record — a "new party" travels through checkout
// with a nil ID and is created upstream right before the bill that needs it.
type Party struct {
	ID        *int64            `json:"id"`
	Name      string            `json:"name"`
	Phone     string            `json:"phone"`
	Address   string            `json:"address"`
	Kind      string            `json:"type"`
	ExtraInfo map[string]string `json:"extra_info,omitempty"`
}
