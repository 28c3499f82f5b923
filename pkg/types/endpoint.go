package types

// ParameterSpec describes one argument accepted by an engine endpoint.
type ParameterSpec struct {
	// Schema is the JSON-Schema fragment that constrains the argument's value.
	// It is mandatory, an endpoint with a parameter that has no schema cannot be registered.
	Schema map[string]any `json:"schema"`

	// Optional indicates that the argument may be omitted by the caller.
	Optional bool `json:"optional,omitempty"`

	Description string `json:"description,omitempty"`
}

// EndpointMetadata describes one remotely-defined callable operation exposed by the engine.
type EndpointMetadata struct {
	// Path uniquely identifies the endpoint.
	// It is used to derive the tool name (query_<path>) and as the dispatch key.
	Path string `json:"path"`

	// RequestMethod is the case-sensitive HTTP verb of the endpoint.
	// Only "GET" is special-cased, every other value is sent as a POST with a JSON body.
	RequestMethod string `json:"requestMethod"`

	Description string `json:"description,omitempty"`

	// Params maps each parameter name to its spec.
	Params map[string]ParameterSpec `json:"params"`
}

// IsGet reports whether calls to the endpoint are sent as GET requests, and so only read data.
func (e EndpointMetadata) IsGet() bool {
	return e.RequestMethod == MethodGet
}

// EndpointRequest is a single call to an engine endpoint.
type EndpointRequest struct {
	Path          string         `json:"path"`
	RequestMethod string         `json:"requestMethod"`
	Parameters    map[string]any `json:"parameters,omitempty"`
}

// IsGet reports whether the request must be encoded as a query string.
// The comparison is case-sensitive on purpose, "get" is sent as a POST.
func (r EndpointRequest) IsGet() bool {
	return r.RequestMethod == MethodGet
}

// MethodGet is the only HTTP verb that is treated specially by the engine client.
const MethodGet = "GET"
