// Package protocol implements the HTTP wire protocol between a fetching
// client and a serving repository: ref advertisement, single object reads,
// and the upload-pack exchange that answers a want/have negotiation with a
// pack stream.
package protocol

const (
	packContentType = "application/x-lodestar-pack"
	jsonContentType = "application/json"
)

// uploadPackRequest is the body of a POST /upload-pack: the collected
// negotiation state of one session, identifiers hex-encoded
type uploadPackRequest struct {
	Wants []string `json:"wants"`
	Haves []string `json:"haves"`
	Done  bool     `json:"done"`
}
