package datastoredb

import (
	"cloud.google.com/go/datastore"
	"context"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/api/option"
	"sync"
)

// DatastoreDB implements the store.StringStorer interface. It maps
// the given name to the datastore entity Kind to isolate data between
// different users of the same project
type DatastoreDB struct {
	mu sync.Mutex
	datastorer
	kind string
}

// EntryValue represents an entity/entry value mapped to a datastore key
type EntryValue struct {
	Value string `datastore:",noindex"`
}

// New returns a new instance of DatastoreDB for the given name (which maps to the datastore entity "Kind" and can
// be thought of as the namespace). This function also requires a gcloudProjectID as well as at least one option to provide
// gcloud client credentials. Datastore calls are measured with the meter, if not nil
func New(name string, gcloudProjectID string, meter metric.Meter, gcloudClientOpts ...option.ClientOption) (dsdb *DatastoreDB, err error) {
	var ds datastorer = &gcdatastore{gcloudProjectID: gcloudProjectID, gcloudClientOpts: gcloudClientOpts}

	if meter != nil {
		if ds, err = newDatastorerWithTelemetry(ds, name, meter); err != nil {
			return nil, errors.Wrap(err, "failed to create datastore metrics")
		}
	}

	return newWithDatastorer(name, ds)
}

// newWithDatastorer connects and validates connectivity with a datastorer
func newWithDatastorer(name string, ds datastorer) (dsdb *DatastoreDB, err error) {
	dsdb = new(DatastoreDB)
	dsdb.datastorer = ds
	dsdb.kind = name

	if err = dsdb.connect(); err != nil {
		return nil, err
	}

	if err = dsdb.testDB(); err != nil {
		dsdb.Close()
		return nil, err
	}

	return dsdb, nil
}

// testDB makes a lightweight call to the datastore to validate connectivity and credentials
func (dsdb *DatastoreDB) testDB() (err error) {
	_, err = dsdb.GetString("testConnectivity")

	if err != nil && err != datastore.ErrNoSuchEntity {
		return err
	}

	return nil
}

// withReconnect runs a datastore call and, if it fails with anything else than a missing entity, reconnects
// and tries it once more. Credentials can expire or rotate during the life of a process
func (dsdb *DatastoreDB) withReconnect(call func() error) (err error) {
	err = call()
	if err == nil || err == datastore.ErrNoSuchEntity {
		return err
	}

	dsdb.mu.Lock()
	cerr := dsdb.connect()
	dsdb.mu.Unlock()

	if cerr != nil {
		return err
	}

	return call()
}

// GetString returns the value associated to a given key. If the value is not
// found or an error occurred, the zero-value string is returned along with
// the error
func (dsdb *DatastoreDB) GetString(key string) (value string, err error) {
	var e EntryValue
	k := datastore.NameKey(dsdb.kind, key, nil)

	err = dsdb.withReconnect(func() error {
		return dsdb.Get(context.Background(), k, &e)
	})
	if err != nil {
		return "", err
	}

	return e.Value, nil
}

// PutString stores the key/value to the database
func (dsdb *DatastoreDB) PutString(key string, value string) (err error) {
	k := datastore.NameKey(dsdb.kind, key, nil)

	return dsdb.withReconnect(func() (err error) {
		_, err = dsdb.Put(context.Background(), k, &EntryValue{Value: value})
		return err
	})
}

// DeleteString deletes the entry for the given key. If the entry is not found
// an error is returned
func (dsdb *DatastoreDB) DeleteString(key string) (err error) {
	k := datastore.NameKey(dsdb.kind, key, nil)

	return dsdb.withReconnect(func() error {
		return dsdb.Delete(context.Background(), k)
	})
}

// Scan returns all key/values from the database
func (dsdb *DatastoreDB) Scan() (entries map[string]string, err error) {
	var keys []*datastore.Key
	var vals []*EntryValue

	err = dsdb.withReconnect(func() (err error) {
		vals = nil
		keys, err = dsdb.GetAll(context.Background(), datastore.NewQuery(dsdb.kind), &vals)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries = make(map[string]string)
	for i, key := range keys {
		entries[key.Name] = vals[i].Value
	}

	return entries, nil
}
