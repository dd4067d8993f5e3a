package models

// Requests for instrument HTTP endpoints. Defined in domain for consistency and reuse.

type InstrumentsRequest struct {
	Index string `param:"index" json:"index" validate:"required,oneof=TWII TW50 TWMIDCAP twii tw50 twmidcap"`
}

type CollectRequest struct {
	Index string `param:"index" json:"index" validate:"required,oneof=TWII TW50 TWMIDCAP twii tw50 twmidcap"`
	Force bool   `query:"force" json:"force" default:"false"`
}

type ChangesRequest struct {
	Index string `param:"index" json:"index" validate:"required,oneof=TWII TW50 TWMIDCAP twii tw50 twmidcap"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}
