package domain

// ChatTurn is one question/answer exchange. Turns are never modified once
// appended to a history.
type ChatTurn struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// ChatHistory is the ordered list of turns of one conversation.
type ChatHistory []ChatTurn

// Clone returns a copy that shares no backing array with h.
func (h ChatHistory) Clone() ChatHistory {
	if len(h) == 0 {
		return ChatHistory{}
	}
	out := make(ChatHistory, len(h))
	copy(out, h)
	return out
}

// Chunk is a slice of a source document returned by a retriever.
// Metadata values are scalars: string, int, float64 or bool.
type Chunk struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Clone returns a deep copy of the chunk's metadata map.
func (c Chunk) Clone() Chunk {
	md := make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		md[k] = v
	}
	return Chunk{Content: c.Content, Metadata: md}
}

// Document is a loaded source document before chunking.
type Document struct {
	Content  string
	Metadata map[string]any
}

// Lookup is the serializable form of a retrieved chunk.
type Lookup struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

// AskResult is the outcome of one successful chat turn.
type AskResult struct {
	Response string   `json:"response"`
	DBLookup []Lookup `json:"db_lookup"`
}

// LookupsFromChunks converts retrieved chunks to their serializable form,
// preserving order.
func LookupsFromChunks(chunks []Chunk) []Lookup {
	out := make([]Lookup, 0, len(chunks))
	for _, c := range chunks {
		cc := c.Clone()
		out = append(out, Lookup{PageContent: cc.Content, Metadata: cc.Metadata})
	}
	return out
}
