package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	AlreadyExists    Code = 100005
	Internal         Code = 100006
	Unavailable      Code = 100007

	// Ledger codes
	InsufficientBalance Code = 200001
	Contention          Code = 200002

	// Drawing codes
	InvalidDrawingState Code = 300001
	ImmutableResult     Code = 300002

	// Fulfillment codes
	InvalidTransition Code = 400001
)
