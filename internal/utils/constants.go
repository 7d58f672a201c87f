package utils

// HTTP Header Constants
const (
	// Standard HTTP Headers
	HeaderContentType = "Content-Type"
	HeaderUserAgent   = "User-Agent"

	// Request/Response Tracking Headers
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	// Client IP Headers (priority order)
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderCloudFlareRay  = "cf-ray"

	// Service Headers
	HeaderXAccelBuffering    = "X-Accel-Buffering"
	HeaderCopilotActions     = "X-Copilot-Actions"
	HeaderCopilotActionToken = "X-Copilot-Action-Token"

	// CORS Headers
	HeaderAccessControlAllowOrigin   = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods  = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders  = "Access-Control-Allow-Headers"
	HeaderAccessControlExposeHeaders = "Access-Control-Expose-Headers"

	// Authorization Headers
	HeaderAuthorization = "Authorization"
)

// Content Type Constants
const (
	ContentTypeJSON = "application/json"
)

// Service Values
const (
	ServiceName = "Itinerary-Gateway/1.0"
)

// CORS Values
const (
	CORSAllowOriginAll   = "*"
	CORSAllowMethodsAll  = "POST, GET, OPTIONS"
	CORSAllowHeadersStd  = "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID, X-Correlation-ID"
	CORSExposeHeadersStd = "X-Request-ID, X-Correlation-ID"
)

// Header Values for Buffering
const (
	XAccelBufferingNo = "no"
)

// Credential rules shared by the validator and the masker
const (
	CredentialPrefix       = "sk-"
	CredentialMinLength    = 11
	DiagnosticPreviewLimit = 200
)
