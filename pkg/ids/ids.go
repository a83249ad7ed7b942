package ids

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// Generator hands out time-ordered unique strings for on-disk names.
type Generator interface {
	Next() string
}

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewGenerator builds a snowflake generator for nodeID. An invalid node
// (outside 0..1023) yields a generator that returns KSUIDs instead.
func NewGenerator(nodeID int64) Generator {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return ksuidGenerator{}
	}
	return &snowflakeGenerator{node: node}
}

func (g *snowflakeGenerator) Next() string {
	return g.node.Generate().String()
}

type ksuidGenerator struct{}

func (ksuidGenerator) Next() string {
	return NewKSUID()
}

var (
	defaultOnce sync.Once
	defaultGen  Generator
)

// Default returns a process-wide node 1 generator.
func Default() Generator {
	defaultOnce.Do(func() { defaultGen = NewGenerator(1) })
	return defaultGen
}
