package api

// IngestResponse is the JSON response for an accepted delivery.
type IngestResponse struct {
	Processed int `json:"processed"`
}

// ErrorResponse is the JSON error envelope. Code is a machine-readable
// discriminator; Details carries an underlying cause for operability and
// never includes secrets.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Machine-readable error codes.
const (
	CodeMissingSecret    = "missing_secret"
	CodeMissingSignature = "missing_signature"
	CodeInvalidSignature = "invalid_signature"
	CodeInvalidJSON      = "invalid_json"
	CodePayloadTooLarge  = "payload_too_large"
	CodeStoreFailure     = "store_failure"
)
