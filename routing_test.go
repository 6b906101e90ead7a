package challengescot

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"math"
	"sync"
	"testing"
)

func newTestInstrumenter(t *testing.T) *instrumenter {
	ins, err := newInstrumenter("test", nil)
	require.NoError(t, err)

	return ins
}

func TestNewPartitioner(t *testing.T) {
	tests := map[string]struct {
		partitionCount int
		expectedError  string
	}{
		"InvalidZeroPartitions": {
			partitionCount: 0,
			expectedError:  "A partition router can only work with a partitionCount that is a power of two but was [0]",
		},
		"ValidOnePartition": {
			partitionCount: 1,
			expectedError:  "",
		},
		"ValidTwoPartitions": {
			partitionCount: 2,
			expectedError:  "",
		},
		"Invalid3Partitions": {
			partitionCount: 3,
			expectedError:  "A partition router can only work with a partitionCount that is a power of two but was [3]",
		},
		"Valid4Partitions": {
			partitionCount: 4,
			expectedError:  "",
		},
		"Invalid5Partitions": {
			partitionCount: 5,
			expectedError:  "A partition router can only work with a partitionCount that is a power of two but was [5]",
		},
		"Valid16Partitions": {
			partitionCount: 16,
			expectedError:  "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			pr, err := newPartitionRouter(tc.partitionCount, 1, NewSLogger(ioutil.Discard, false), newTestInstrumenter(t))

			if tc.expectedError == "" {
				assert.NoError(t, err)
				assert.NotNil(t, pr)
				assert.Len(t, pr.messageQueues, tc.partitionCount)
			} else {
				assert.EqualError(t, err, tc.expectedError)
			}
		})
	}
}

func TestConsistentHashing(t *testing.T) {
	convID := conversationID{channelID: "general", timestamp: "11298321983.23"}

	for i := 0; i < 16; i++ {
		partitionCount := int(math.Pow(float64(2), float64(i)))
		name := fmt.Sprintf("With_%d_Partitions", partitionCount)

		t.Run(name, func(t *testing.T) {
			pr, _ := newPartitionRouter(partitionCount, 1, NewSLogger(ioutil.Discard, false), newTestInstrumenter(t))
			partition := pr.partitionFor(convID)

			for i := 0; i < 100; i++ {
				assert.Equal(t, partition, pr.partitionFor(convID))
			}
		})
	}
}

func TestHashDistribution(t *testing.T) {
	// Generate conversation IDs that are all different to validate the uniform distribution across partitions
	convIDs := make([]conversationID, 0)
	for i := 0; i < 500000; i++ {
		msgTimestamp := fmt.Sprintf("19292929%d.214", i*1000)
		convIDs = append(convIDs, conversationID{channelID: "general", timestamp: msgTimestamp})
		convIDs = append(convIDs, conversationID{channelID: "général", timestamp: msgTimestamp})
	}

	convIDCount := len(convIDs)

	for i := 0; i < 10; i++ {
		partitionCount := int(math.Pow(float64(2), float64(i)))
		name := fmt.Sprintf("With_%d_Partitions", partitionCount)
		partitionHitCount := make([]int, partitionCount)

		t.Run(name, func(t *testing.T) {
			pr, _ := newPartitionRouter(partitionCount, 1, NewSLogger(ioutil.Discard, false), newTestInstrumenter(t))

			for _, convID := range convIDs {
				partition := pr.partitionFor(convID)
				partitionHitCount[partition] = partitionHitCount[partition] + 1
			}

			expectedHitsPerPartition := float64(convIDCount) / float64(partitionCount)
			deviationTolerance := 3.0 * expectedHitsPerPartition / 100
			for partition, hitCount := range partitionHitCount {
				assert.InDeltaf(t, expectedHitsPerPartition, hitCount, deviationTolerance, "All partitions should have received about [%.1f] hits but partition [%d] got [%d]", expectedHitsPerPartition, partition, hitCount)
			}
		})
	}
}

func TestHashMask(t *testing.T) {
	for i := 0; i < 16; i++ {
		partitionCount := int(math.Pow(float64(2), float64(i)))
		name := fmt.Sprintf("With_%d_Partitions", partitionCount)

		t.Run(name, func(t *testing.T) {
			mask := hashMask(partitionCount)
			assert.Equal(t, partitionCount-1, mask)
		})
	}
}

func TestThreadMessagesShareConversation(t *testing.T) {
	top := &IncomingMessage{Channel: "C1", Timestamp: "100.1"}
	reply := &IncomingMessage{Channel: "C1", Timestamp: "105.3", ThreadTimestamp: "100.1"}

	assert.Equal(t, conversationOf(top), conversationOf(reply))
}

func TestRouterProcessesThreadInOrder(t *testing.T) {
	pr, err := newPartitionRouter(4, 2, NewSLogger(ioutil.Discard, false), newTestInstrumenter(t))
	require.NoError(t, err)

	var mu sync.Mutex
	processed := make([]string, 0)
	pr.start(func(m *IncomingMessage) {
		mu.Lock()
		defer mu.Unlock()
		processed = append(processed, m.Timestamp)
	})

	expected := make([]string, 0)
	for i := 0; i < 50; i++ {
		ts := fmt.Sprintf("100.%d", i+2)
		expected = append(expected, ts)
		pr.route(&IncomingMessage{Channel: "C1", Timestamp: ts, ThreadTimestamp: "100.1"})
	}

	pr.stop()

	assert.Equal(t, expected, processed)
}
