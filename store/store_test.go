package store_test

import (
	"fmt"
	"github.com/codeclub/challengescot/challenge"
	"github.com/codeclub/challengescot/store"
	"github.com/codeclub/challengescot/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"testing"
	"time"
)

func newTestResult(id string) *challenge.Result {
	return &challenge.Result{
		ChallengeID: id,
		Prompt:      "Reverse a linked list",
		Partial:     true,
		Rows: []challenge.ResultRow{
			{Participant: challenge.Participant{ID: "U1", Name: "bob"}, Grade: &challenge.Grade{
				Participant: challenge.Participant{ID: "U1", Name: "bob"},
				Score:       decimal.RequireFromString("87.5"),
				GradedAt:    time.Date(2019, time.March, 4, 10, 31, 0, 0, time.UTC),
			}},
			{Participant: challenge.Participant{ID: "U2", Name: "carol"}},
		},
	}
}

func TestArchiveAndReadBack(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmpTest")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	ldb, err := store.NewLevelDB("challenge", dir)
	require.NoError(t, err)

	ra := store.NewResultArchive(ldb)
	defer ra.Close()

	require.NoError(t, ra.Archive(newTestResult("1551693600000000001")))
	require.NoError(t, ra.Archive(newTestResult("1551693500000000001")))

	r, err := ra.Result("1551693600000000001")
	require.NoError(t, err)

	assert.Equal(t, "1551693600000000001", r.ChallengeID)
	assert.Equal(t, "Reverse a linked list", r.Prompt)
	assert.True(t, r.Partial)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, "87.5", r.Rows[0].Score())
	assert.Equal(t, challenge.NotGraded, r.Rows[1].Score())
	assert.Equal(t, "bob", r.Rows[0].Participant.Name)
	assert.True(t, r.Rows[0].Grade.GradedAt.Equal(time.Date(2019, time.March, 4, 10, 31, 0, 0, time.UTC)))

	ids, err := ra.ChallengeIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"1551693500000000001", "1551693600000000001"}, ids)
}

func TestArchiveWithStorageFailure(t *testing.T) {
	ms := new(mocks.Storer)
	defer ms.AssertExpectations(t)
	ms.On("PutString", "1", mock.Anything).Return(fmt.Errorf("disk full"))

	err := store.NewResultArchive(ms).Archive(newTestResult("1"))

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to store result of challenge [1]")
		assert.Contains(t, err.Error(), "disk full")
	}
}

func TestMissingResult(t *testing.T) {
	ms := new(mocks.Storer)
	defer ms.AssertExpectations(t)
	ms.On("GetString", "42").Return("", fmt.Errorf("leveldb: not found"))

	_, err := store.NewResultArchive(ms).Result("42")

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "no result found for challenge [42]")
	}
}

func TestCorruptedResult(t *testing.T) {
	ms := new(mocks.Storer)
	defer ms.AssertExpectations(t)
	ms.On("GetString", "42").Return("{not json", nil)

	_, err := store.NewResultArchive(ms).Result("42")

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to decode result of challenge [42]")
	}
}

func TestListingFailure(t *testing.T) {
	ms := new(mocks.Storer)
	defer ms.AssertExpectations(t)
	ms.On("Scan").Return(map[string]string(nil), fmt.Errorf("io error"))

	_, err := store.NewResultArchive(ms).ChallengeIDs()

	assert.Error(t, err)
}
