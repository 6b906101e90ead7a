/*
Package inmemorydb provides an implementation of github.com/codeclub/challengescot/store's StringStorer interface
as an in-memory data store relying on a wrapping StringStorer for actual persistence.

The main use-case for the inmemorydb is to shield the real StringStorer implementation (typically the Google Cloud
Datastore) from repeated reads of archived results by `/challenge results`. Archives are small (one entry per
completed challenge) so keeping a copy in memory is cheap.

Example code:

	import (
		"github.com/codeclub/challengescot/store"
		"github.com/codeclub/challengescot/store/datastoredb"
		"github.com/codeclub/challengescot/store/inmemorydb"
		"google.golang.org/api/option"
	)

	func main() {
		// Create your persistent storer first
		persistentStorer, err := datastoredb.New("challenge", "codeclub-bots", nil, option.WithCredentialsFile(*gcloudCredentialsFile))
		if err != nil {
			log.Fatalf("Opening [challenge] db failed: %s", err.Error())
		}

		// Create the inmemorydb
		storer, err := inmemorydb.New(persistentStorer)
		if err != nil {
			log.Fatalf("Opening creating in-memory db wrapper: %s", err.Error())
		}

		archive := store.NewResultArchive(storer)
		defer archive.Close()
		...
	}
*/
package inmemorydb
