package dto

// RedFlagRequest creates or updates a red flag.
type RedFlagRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// RedFlagBackfillResult reports a one-time id backfill run.
type RedFlagBackfillResult struct {
	Assigned int  `json:"assigned"`
	DryRun   bool `json:"dryRun"`
}
