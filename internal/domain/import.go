package domain

import "time"

// ImportReceipt is the audit entry written once per import call. It is never updated.
type ImportReceipt struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	ImportID    string      `json:"importId"`
	ImportedAt  time.Time   `json:"importedAt"`
	VideoCount  int         `json:"videoCount"`
	ContentType ContentType `json:"contentType"`
}

// ImportResult summarizes what one import did to the store.
type ImportResult struct {
	ImportID    string      `json:"importId"`
	Imported    int         `json:"imported"`
	Added       int         `json:"added"`
	Updated     int         `json:"updated"`
	Removed     int         `json:"removed"`
	ContentType ContentType `json:"contentType"`
	// ContentTypeDefaulted is true when the caller left the category unspecified.
	ContentTypeDefaulted bool `json:"contentTypeDefaulted"`
}
