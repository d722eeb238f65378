package infra

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// NomorGenerator issues request numbers of the form PMT-YYYYMMDD-<snowflake>.
// Snowflake ids are unique per node, so SNOWFLAKE_NODE must differ between
// replicas.
type NomorGenerator struct {
	node *snowflake.Node
	now  func() time.Time
}

func NewNomorGenerator(nodeID int64) (*NomorGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &NomorGenerator{node: node, now: time.Now}, nil
}

func (g *NomorGenerator) Nomor() string {
	return fmt.Sprintf("PMT-%s-%s", g.now().Format("20060102"), g.node.Generate().String())
}
