package models

// OrphanAsset is a blob whose row is gone but whose storage delete failed.
// The asset reaper retries these until the store confirms removal.
type OrphanAsset struct {
	Model
	Key       string `json:"key" gorm:"column:object_key;uniqueIndex;size:512;not null"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error" gorm:"type:text"`
}
