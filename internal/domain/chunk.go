package domain

// Chunk is one embedded slice of a source document.
type Chunk struct {
	DocPath string
	Title   string
	Seq     int
	Text    string
	Vector  []float32
}

// Hit is a chunk returned from a similarity search.
type Hit struct {
	Chunk Chunk
	Score float64
}

// Citation is a distinct source document referenced by an answer.
type Citation struct {
	Path      string
	Title     string
	Relevance float64
}
