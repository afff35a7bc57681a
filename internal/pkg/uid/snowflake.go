package uid

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-sortable int64 IDs using a per-node snowflake node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a Snowflake generator. The node number is derived from
// the hostname so that replicas on different hosts do not collide.
func NewSnowflake() (*Snowflake, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	h := fnv.New32a()
	h.Write([]byte(host))
	nodeNum := int64(h.Sum32() % 1024)

	node, err := snowflake.NewNode(nodeNum)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
