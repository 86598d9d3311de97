package cosmos

// Query and execute envelopes of the CosmWasm hyperlane contracts.

type routeRequest struct {
	Route routeRequestInner `json:"route"`
}

type routeRequestInner struct {
	Message string `json:"message"`
}

type routeResponse struct {
	Ism string `json:"ism"`
}

type mailboxQuery struct {
	Mailbox mailboxQueryInner `json:"mailbox"`
}

type mailboxQueryInner struct {
	Delivered    *deliveredRequest    `json:"delivered,omitempty"`
	DefaultIsm   *struct{}            `json:"default_ism,omitempty"`
	RecipientIsm *recipientIsmRequest `json:"recipient_ism,omitempty"`
	Count        *struct{}            `json:"count,omitempty"`
}

type deliveredRequest struct {
	ID string `json:"id"`
}

type recipientIsmRequest struct {
	RecipientAddr string `json:"recipient_addr"`
}

type deliveredResponse struct {
	Delivered bool `json:"delivered"`
}

type defaultIsmResponse struct {
	DefaultIsm string `json:"default_ism"`
}

type recipientIsmResponse struct {
	Ism string `json:"ism"`
}

type countResponse struct {
	Count uint32 `json:"count"`
}

type processExecute struct {
	Process processExecuteInner `json:"process"`
}

type processExecuteInner struct {
	Metadata string `json:"metadata"`
	Message  string `json:"message"`
}
