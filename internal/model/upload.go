package model

// Upload is a file received from the browser, held in memory until it is
// forwarded to the backend.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
