/*
Package datastoredb provides an implementation of github.com/codeclub/challengescot/store's StringStorer interface
backed by the Google Cloud Datastore.

Requirements for the Google Cloud Datastore integration:
  - A valid project id with datastore mode enabled
  - Google Cloud Credentials (typically in the form of a json file with credentials from https://console.cloud.google.com/apis/credentials/serviceaccountkey)

Example code:

	import (
		"github.com/codeclub/challengescot/store"
		"github.com/codeclub/challengescot/store/datastoredb"
		"google.golang.org/api/option"
	)

	func main() {
		// The first argument is this instance's namespace (the datastore Kind).
		// The second argument is the gcloud project id.
		// The third argument is an optional meter to record datastore call metrics.
		// The remaining arguments are client options, most commonly the path to a json credentials file
		resultsStorer, err := datastoredb.New("challengeResults", "codeclub-bots", nil, option.WithCredentialsFile(*gcloudCredentialsFile))
		if err != nil {
			log.Fatalf("Opening [%s] db failed: %s", "challengeResults", err.Error())
		}

		archive := store.NewResultArchive(resultsStorer)
		defer archive.Close()

		// Run your instance
		...
	}
*/
package datastoredb // import "github.com/codeclub/challengescot/store/datastoredb"
