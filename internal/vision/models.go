package vision

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateResponse struct {
	Responses []annotateResult `json:"responses"`
}

type annotateResult struct {
	TextAnnotations []textAnnotation `json:"textAnnotations"`
}

type textAnnotation struct {
	Description string   `json:"description"`
	Locale      string   `json:"locale,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}
