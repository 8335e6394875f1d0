// internal/models/search.go
package models

// VisualMatch is one ranked hit from a lens provider.
type VisualMatch struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet,omitempty"`
	Link      string `json:"link"`
	Source    string `json:"source,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// KnowledgeGraph is the provider's recognised entity, when it has one.
type KnowledgeGraph struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// VisualResult is the merged outcome of the visual search cascade.
type VisualResult struct {
	KnowledgeGraph  *KnowledgeGraph `json:"knowledgeGraph,omitempty"`
	VisualMatches   []VisualMatch   `json:"visualMatches"`
	TextResults     []string        `json:"textResults,omitempty"`
	RelatedSearches []string        `json:"relatedSearches,omitempty"`
	Providers       []string        `json:"providers"`
}

// OrganicResult is one entry of a text search.
type OrganicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// AnswerBox is the provider's direct answer for a text query.
type AnswerBox struct {
	Title   string `json:"title,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// TextResult is the outcome of a text search.
type TextResult struct {
	Organic   []OrganicResult `json:"organic"`
	AnswerBox *AnswerBox      `json:"answerBox,omitempty"`
}

// ExtractedEntity is the candidate fact bundle mined from one visual search.
// Nil pointers mean the field could not be determined.
type ExtractedEntity struct {
	Identified     *string       `json:"identified,omitempty"`
	Description    *string       `json:"description,omitempty"`
	RelatedResults []VisualMatch `json:"relatedResults"`
	TextInImage    []string      `json:"textInImage,omitempty"`
	Keywords       []string      `json:"keywords,omitempty"`
	Price          *string       `json:"price,omitempty"`
	RawTitles      []string      `json:"rawTitles,omitempty"`
}
