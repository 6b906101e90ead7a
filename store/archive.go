package store

import (
	"encoding/json"
	"github.com/codeclub/challengescot/challenge"
	"github.com/pkg/errors"
	"sort"
)

// ResultArchive keeps completed challenge results in a StringStorer. It implements challenge.ResultArchive
type ResultArchive struct {
	storer StringStorer
}

// NewResultArchive returns a new ResultArchive writing to the given storer
func NewResultArchive(storer StringStorer) (ra *ResultArchive) {
	ra = new(ResultArchive)
	ra.storer = storer

	return ra
}

// Archive stores the result under its challenge id, replacing any previous one
func (ra *ResultArchive) Archive(r *challenge.Result) (err error) {
	content, err := json.Marshal(r)
	if err != nil {
		return errors.Wrapf(err, "failed to encode result of challenge [%s]", r.ChallengeID)
	}

	if err = ra.storer.PutString(r.ChallengeID, string(content)); err != nil {
		return errors.Wrapf(err, "failed to store result of challenge [%s]", r.ChallengeID)
	}

	return nil
}

// Result returns the archived result of a challenge
func (ra *ResultArchive) Result(challengeID string) (r *challenge.Result, err error) {
	content, err := ra.storer.GetString(challengeID)
	if err != nil {
		return nil, errors.Wrapf(err, "no result found for challenge [%s]", challengeID)
	}

	r = new(challenge.Result)
	if err = json.Unmarshal([]byte(content), r); err != nil {
		return nil, errors.Wrapf(err, "failed to decode result of challenge [%s]", challengeID)
	}

	return r, nil
}

// ChallengeIDs returns the ids of all archived challenges, oldest first
func (ra *ResultArchive) ChallengeIDs() (ids []string, err error) {
	entries, err := ra.storer.Scan()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list archived results")
	}

	ids = make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}

	// Ids are creation timestamps in nanoseconds so they all have the same number of digits
	sort.Strings(ids)

	return ids, nil
}

// Close closes the underlying storer
func (ra *ResultArchive) Close() (err error) {
	return ra.storer.Close()
}
