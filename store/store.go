// Package store provides the persistence of completed challenge results. Results are kept as json documents
// in a StringStorer keyed by challenge id, which can be a local leveldb database (LevelDB), the Google Cloud
// Datastore (store/datastoredb) or either of those shielded by an in-memory copy (store/inmemorydb)
package store

import (
	"io"
)

// StringStorer is implemented by any value that has the GetString/PutString/DeleteString/Scan methods and Close
type StringStorer interface {
	io.Closer

	// GetString returns the value associated to a given key. If the value is not
	// found or an error occurred, the zero-value string is returned along with
	// the error
	GetString(key string) (value string, err error)

	// PutString stores the key/value to the database
	PutString(key string, value string) (err error)

	// DeleteString deletes the entry for the given key. If the entry is not found
	// an error is returned
	DeleteString(key string) (err error)

	// Scan returns all key/values from the database
	Scan() (entries map[string]string, err error)
}
