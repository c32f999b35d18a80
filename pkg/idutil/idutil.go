// Package idutil hands out snowflake ids. Snowflakes are time-ordered, so
// sorting rows by id reproduces creation order without a separate sequence.
package idutil

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	once sync.Once
	node *snowflake.Node
)

func Init(nodeID int64) {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			panic(err)
		}
	})
}

// Next returns the next snowflake id. Init(0) is assumed if Init was never
// called explicitly.
func Next() int64 {
	if node == nil {
		Init(0)
	}

	return node.Generate().Int64()
}
