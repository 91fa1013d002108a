package dto

// Identity is the caller as seen by the gateway. UserID is set for
// authenticated callers, Address is the best-known network address.
type Identity struct {
	UserID  string `json:"user_id,omitempty"`
	Address string `json:"address,omitempty"`
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

type JobType string

const (
	JobTypeQuery JobType = "query"
	JobTypeEvent JobType = "event"
)

type RejectionReason string

const (
	// RejectSignInRequired: an anonymous caller hit the guest ceiling.
	RejectSignInRequired RejectionReason = "sign_in_required"
	// RejectQuotaExhausted: an authenticated caller hit their own ceiling.
	RejectQuotaExhausted RejectionReason = "quota_exhausted"
	// RejectQuotaUnavailable: the quota store could not be consulted.
	RejectQuotaUnavailable RejectionReason = "quota_unavailable"
	RejectQueryTooLong     RejectionReason = "query_too_long"
	RejectUnsupportedQuery RejectionReason = "unsupported_query"
	RejectInvalidRoster    RejectionReason = "invalid_roster"
)

// IsQuota reports whether the rejection came from the limiter.
func (r RejectionReason) IsQuota() bool {
	return r == RejectSignInRequired || r == RejectQuotaExhausted
}

// IsTransient reports whether retrying later may succeed without any
// change on the caller side.
func (r RejectionReason) IsTransient() bool {
	return r == RejectQuotaUnavailable
}

type SubmitQueryRequest struct {
	Query string `json:"query" validate:"required,min=1"`
}

func (r SubmitQueryRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SubmitEventRequest struct {
	Description string   `json:"description" validate:"max=2000"`
	Entries     []string `json:"entries" validate:"required,min=1,dive,required,max=300"`
}

func (r SubmitEventRequest) Validate() error {
	return GetValidator().Struct(r)
}

type EditEventRequest struct {
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Add         []string `json:"add" validate:"dive,required,max=300,roster_entry"`
	Remove      []string `json:"remove" validate:"dive,required,max=300"`
}

func (r EditEventRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SubmitResult struct {
	Accepted        bool            `json:"accepted"`
	JobID           string          `json:"jobId,omitempty"`
	RejectionReason RejectionReason `json:"rejectionReason,omitempty"`
	Message         string          `json:"message,omitempty"`
	Keyword         string          `json:"keyword,omitempty"`
	RateLimit       *RateLimitInfo  `json:"rateLimit,omitempty"`
}

// JobRequest is what the gateway hands to the job registrar once a
// submission has passed quota and content validation.
type JobRequest struct {
	Type        JobType
	OwnerID     string
	Query       string
	Keyword     string
	Description string
	Handles     []string
	RequestData []string
}

// UpstreamJobParams is the body sent to the upstream analysis service.
type UpstreamJobParams struct {
	Type       JobType  `json:"type"`
	Query      string   `json:"query,omitempty"`
	Keyword    string   `json:"keyword,omitempty"`
	Handles    []string `json:"handles,omitempty"`
	Ecosystems []string `json:"ecosystems,omitempty"`
}
