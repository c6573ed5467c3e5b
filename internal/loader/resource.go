package loader

import "net/http"

// StreamResource is a completed fetch: response metadata plus payload.
type StreamResource struct {
	response *http.Response
	data     []byte
}

// NewStreamResource pairs a response with its payload. Both are required;
// the coordinator never builds a resource from one alone.
func NewStreamResource(response *http.Response, data []byte) StreamResource {
	return StreamResource{response: response, data: data}
}

// Response returns the status and headers of the completed request.
func (r StreamResource) Response() *http.Response { return r.response }

// StatusCode is a shortcut for Response().StatusCode.
func (r StreamResource) StatusCode() int { return r.response.StatusCode }

// Data returns the payload.
func (r StreamResource) Data() []byte { return r.data }

// Entry is a relay element: a resource tagged with the item it was loaded for.
type Entry struct {
	Identifier string
	Resource   StreamResource
}
