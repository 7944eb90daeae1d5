package morningstar

import "encoding/json"

// Sub-resource endpoints the provider exposes per fund.
const (
	endpointCommon      = "common-data"
	endpointPerformance = "performance"
	endpointFees        = "fees"
)

// statusOK is the provider's application-level success code carried in
// the response envelope. Anything else means the body is unusable even
// when the HTTP status was 200.
const statusOK = "200011"

// envelope wraps every provider response. The payload sits under data
// only when _meta.response_status reports success.
type envelope struct {
	Meta struct {
		ResponseStatus string `json:"response_status"`
	} `json:"_meta"`
	Data json.RawMessage `json:"data"`
}

// commonPayload carries the identity attributes of a fund. FundSize is
// in currency units, not hundred-millions.
type commonPayload struct {
	Name          string  `json:"name"`
	FundName      string  `json:"fundName"`
	InceptionDate string  `json:"inceptionDate"`
	FundSize      float64 `json:"fundSize"`
}

// returnSeries holds period returns keyed by the provider's fixed
// period labels. Values are percentages; absent means not disclosed.
type returnSeries struct {
	YTD *float64 `json:"YTD"`
	Y3  *float64 `json:"Y3"`
	Y5  *float64 `json:"Y5"`
}

type performancePayload struct {
	BenchmarkName string `json:"benchmarkName"`
	DayEnd        struct {
		Returns          returnSeries `json:"returns"`
		BenchmarkReturns returnSeries `json:"benchmarkReturns"`
	} `json:"dayEnd"`
}

type feesPayload struct {
	Fees *feeFigures `json:"fees"`
}

// feeFigures are percentage values (0.15 means 0.15%). Zero and absent
// are both treated as "not disclosed" by the normalizer.
type feeFigures struct {
	ManagementFee   *float64 `json:"managementFee"`
	CustodianFee    *float64 `json:"custodianFee"`
	DistributionFee *float64 `json:"distributionFee"`
	TradeCost       *float64 `json:"tradeCost"`
	OtherCost       *float64 `json:"otherCost"`
}

// rawFund bundles the three sub-resource payloads for one code before
// normalization. performance and fees may be nil.
type rawFund struct {
	code        string
	common      *commonPayload
	performance *performancePayload
	fees        *feesPayload
}
