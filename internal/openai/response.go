package openai

// Request/response shapes for the Responses API. Only the fields this service
// reads or writes are modeled; everything else in the payload is ignored by
// the JSON decoder, which is what makes the artifact scan tolerant of schema
// the caller does not control.

type ResponseRequest struct {
	Model        string    `json:"model"`
	ToolChoice   string    `json:"tool_choice,omitempty"`
	Tools        []Tool    `json:"tools,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	Input        []Message `json:"input"`
}

type Tool struct {
	Type      string     `json:"type"`
	Container *Container `json:"container,omitempty"`
}

// Container describes the auto-provisioned execution sandbox. FileIDs preload
// previously uploaded files into the container's working directory.
type Container struct {
	Type        string   `json:"type"`
	MemoryLimit string   `json:"memory_limit,omitempty"`
	FileIDs     []string `json:"file_ids,omitempty"`
}

type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type Response struct {
	ID         string       `json:"id"`
	Model      string       `json:"model"`
	OutputText string       `json:"output_text"`
	Output     []OutputItem `json:"output"`
}

// OutputItem is one entry of the heterogeneous output sequence. Type
// discriminates; only "message" items carry content this service inspects.
type OutputItem struct {
	Type    string          `json:"type"`
	Content []OutputContent `json:"content"`
}

type OutputContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Annotations []Annotation `json:"annotations"`
}

// Annotation is one content-part annotation. Annotations of type
// "container_file_citation" reference a file produced inside the sandbox.
type Annotation struct {
	Type        string `json:"type"`
	ContainerID string `json:"container_id"`
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
}
