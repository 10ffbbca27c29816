package eval

// DecileRow is one bucket of a rank-based decile table. Aggregates are
// exposure-weighted; shares are fractions of the portfolio totals.
type DecileRow struct {
	Decile        int     `json:"decile"` // 1..10, ascending predicted risk
	Policies      int     `json:"policies"`
	Exposure      float64 `json:"exposure"`
	ExposureShare float64 `json:"exposure_share"`
	ObservedPP    float64 `json:"observed_pp"`  // weighted observed pure premium
	PredictedPP   float64 `json:"predicted_pp"` // weighted predicted pure premium
	LossShare     float64 `json:"loss_share"`
	CumExposure   float64 `json:"cum_exposure_share"`
	CumLoss       float64 `json:"cum_loss_share"`
}

// DecileTable holds the ten rows of a lift or calibration table.
type DecileTable struct {
	Rows []DecileRow `json:"rows"`
}

// GiniResult carries the raw and normalized exposure-weighted Gini.
type GiniResult struct {
	Gini       float64 `json:"gini"`
	Normalized float64 `json:"normalized"`
}

// Summary collects the headline evaluation metrics for one model on one split.
type Summary struct {
	Model          string     `json:"model"`
	Split          string     `json:"split"` // "train" or "test"
	Rows           int        `json:"rows"`
	Exposure       float64    `json:"exposure"`
	MeanObserved   float64    `json:"mean_observed_pp"`
	MeanPredicted  float64    `json:"mean_predicted_pp"`
	Deviance       float64    `json:"tweedie_deviance"` // exposure-weighted mean
	MAE            float64    `json:"mae"`
	Gini           GiniResult `json:"gini"`
}
