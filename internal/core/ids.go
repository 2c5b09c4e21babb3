package core

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator issues time-ordered unique identifiers.
// *snowflake.Node satisfies it.
type IDGenerator interface {
	Generate() snowflake.ID
}

// NewIDNode returns a snowflake node with a random 10-bit node number so
// that several processes sharing one storage backend do not collide.
func NewIDNode() (*snowflake.Node, error) {
	var n uint16
	if err := binary.Read(rand.Reader, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("generate node id: %w", err)
	}
	node, err := snowflake.NewNode(int64(n) & (1<<snowflake.NodeBits - 1))
	if err != nil {
		return nil, fmt.Errorf("create id node: %w", err)
	}
	return node, nil
}

// idTime returns the creation time embedded in a snowflake ID.
func idTime(id snowflake.ID) time.Time {
	return time.UnixMilli(id.Time()).UTC()
}
