package remote

// Wire models for the model server

// ClassifyRequest carries one normalized image
type ClassifyRequest struct {
	Width  int32  `json:"width"`
	Height int32  `json:"height"`
	Format string `json:"format"`
	// Pixels is the row-major 8-bit plane, base64 encoded by encoding/json
	Pixels []byte `json:"pixels"`
}

// ClassifyResponse is the server's answer
type ClassifyResponse struct {
	Label         *int               `json:"label"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Error         string             `json:"error,omitempty"`
}
