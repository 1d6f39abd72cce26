package model

// BulkResult reports the outcome of a batch status update.
type BulkResult struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

// DispatchResult is the notifier's acknowledgement of a batch of transfer
// notifications.
type DispatchResult struct {
	Message string `json:"message"`
}
