package model

import "time"

// Image records an uploaded blob and its public URL.
//
// Key is the object name inside the blob store. It is kept on the row so a
// delete does not have to parse it back out of the URL.
type Image struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // original filename as uploaded
	Key       string    `json:"-"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}
