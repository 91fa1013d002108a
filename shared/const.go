package shared

const (
	UserID        = "user_id"
	ClientAddress = "client_address"

	// UnknownAddress keys every caller whose origin cannot be determined
	// into one shared guest bucket.
	UnknownAddress = "unknown"

	QuotaKeyPrefix = "quota"
)
