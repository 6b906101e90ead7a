package challengescot

import (
	"context"
	"fmt"
	"hash"
	"hash/crc32"
	"math"
	"sync"
)

// conversationID identifies the conversation a message belongs to: a thread or, for top-level messages,
// the message itself
type conversationID struct {
	channelID string
	timestamp string
}

func (c conversationID) String() string {
	return fmt.Sprintf("%s/%s", c.channelID, c.timestamp)
}

type partitionRouter struct {
	log SLogger

	// messageQueues with partition keyed by the hash of the conversation id so that all messages
	// of a thread are handled by the same work queue, in the order they were received
	messageQueues []chan *IncomingMessage

	workers sync.WaitGroup

	// hash function to direct message processing to partitions
	hasher   hash.Hash32
	hashMask int

	*instrumenter
}

func newPartitionRouter(partitionCount int, queueBufferSize int, log SLogger, instrumenter *instrumenter) (pr *partitionRouter, err error) {
	if !isPowerOfTwo(partitionCount) {
		return nil, fmt.Errorf("A partition router can only work with a partitionCount that is a power of two but was [%d]", partitionCount)
	}

	pr = new(partitionRouter)
	pr.messageQueues = make([]chan *IncomingMessage, partitionCount)
	for i := range pr.messageQueues {
		pr.messageQueues[i] = make(chan *IncomingMessage, queueBufferSize)
	}
	pr.hasher = crc32.NewIEEE()
	pr.hashMask = hashMask(partitionCount)
	pr.log = log
	pr.instrumenter = instrumenter

	return pr, nil
}

// start launches one worker per partition. Each worker processes the messages of its queue sequentially
func (pr *partitionRouter) start(process func(m *IncomingMessage)) {
	for i, q := range pr.messageQueues {
		pr.workers.Add(1)

		go func(partition int, queue <-chan *IncomingMessage) {
			defer pr.workers.Done()

			for m := range queue {
				process(m)
			}

			pr.log.Debugf("Worker for partition [%d] done", partition)
		}(i, q)
	}
}

// stop closes all queues and waits for the workers to process what's left in them
func (pr *partitionRouter) stop() {
	for _, q := range pr.messageQueues {
		close(q)
	}

	pr.workers.Wait()
}

// route dispatches the message to the partition of its conversation. Only one goroutine may route messages
func (pr *partitionRouter) route(m *IncomingMessage) {
	convID := conversationOf(m)

	partition := pr.partitionFor(convID)

	pr.log.Debugf("Dispatching message [%s] to partition [%d]", convID, partition)
	d := measure(func() {
		pr.messageQueues[partition] <- m
	})

	pr.recordDispatch(context.Background(), d)
}

// conversationOf returns the identifier of the conversation of a message
func conversationOf(m *IncomingMessage) conversationID {
	if m.ThreadTimestamp != "" {
		return conversationID{channelID: m.Channel, timestamp: m.ThreadTimestamp}
	}

	return conversationID{channelID: m.Channel, timestamp: m.Timestamp}
}

// partitionFor returns the partition index for a given conversation
func (pr *partitionRouter) partitionFor(convID conversationID) (partition int) {
	pr.hasher.Reset()
	pr.hasher.Write([]byte(convID.channelID))
	pr.hasher.Write([]byte(convID.timestamp))
	res := pr.hasher.Sum32()

	// Keep only the rightmost bits so we have a max equal to the partition count
	return int(res) & pr.hashMask
}

// isPowerOfTwo returns true if val is a power of two or false if not
func isPowerOfTwo(val int) bool {
	return (val != 0) && (val&(val-1)) == 0
}

// hashMask builds a mask for a partitionCount (which should be a power of two) to get a hash value
// that is in the range of the number of partitions we have
func hashMask(partitionCount int) int {
	maskSize := int(math.Log2(float64(partitionCount)))
	mask := 0
	for i := 0; i < maskSize; i++ {
		mask = mask<<1 | 1
	}

	return mask
}
