package events

import (
	"fmt"
	"hash/fnv"
)

// DefaultPartitions is the number of streams each topic is split into.
const DefaultPartitions = 4

// Partition maps a key onto [0, n). Every event for one user lands on the
// same partition, so a single consumer sees them in publish order.
func Partition(key string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

func StreamName(topic string, partition int) string {
	return fmt.Sprintf("%s:p%d", topic, partition)
}

func DeadLetterStream(topic string) string {
	return topic + ".dlq"
}
