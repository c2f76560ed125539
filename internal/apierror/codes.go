package apierror

// Error type URIs following the urn:austin:error:* pattern.
// These are used as the "type" field in RFC 9457 Problem Details.
const (
	// TypeValidation indicates request validation failed (400)
	TypeValidation = "urn:austin:error:validation"

	// TypeNotFound indicates the requested resource was not found (404)
	TypeNotFound = "urn:austin:error:not_found"

	// TypeRateLimit indicates too many requests (429)
	TypeRateLimit = "urn:austin:error:rate_limit"

	// TypeForbidden indicates the request is not permitted (403)
	TypeForbidden = "urn:austin:error:forbidden"

	// TypeInternal indicates an unexpected server error (500)
	TypeInternal = "urn:austin:error:internal"

	// TypeViewPrefix prefixes the outcome view of a classified error,
	// e.g. urn:austin:error:view:error1
	TypeViewPrefix = "urn:austin:error:view:"
)

// Titles for each error type - human-readable summaries
const (
	TitleValidation = "Validation Error"
	TitleNotFound   = "Resource Not Found"
	TitleRateLimit  = "Rate Limit Exceeded"
	TitleForbidden  = "Permission Denied"
	TitleInternal   = "Internal Server Error"
)
