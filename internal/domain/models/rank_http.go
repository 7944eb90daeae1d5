package models

// Requests for ranking HTTP endpoints. Defined in domain for consistency and reuse.

type RankRequest struct {
	Sector string   `json:"sector" validate:"required_without=Codes"`
	Codes  []string `json:"codes" validate:"required_without=Sector,omitempty,dive,numeric"`
	Top    int      `json:"top" default:"20" validate:"gte=1,lte=200"`
}

type RankResultRequest struct {
	Sector string `query:"sector" json:"sector" validate:"required"`
}
