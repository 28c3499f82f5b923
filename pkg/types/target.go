package types

// Target is a database managed by the engine.
type Target struct {
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	EngineType  string `json:"engineType"`

	AllowsRawReadonlyQuery  bool `json:"allowsRawReadonlyQuery"`
	AllowsRawReadWriteQuery bool `json:"allowsRawReadWriteQuery"`
}

// Status is the health payload returned by the engine.
// A logically "down" service is reported as OK=false in a successful response.
type Status struct {
	OK bool `json:"ok"`
}
