package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/trackclust/types/segment"
)

// GridCompletedFeed is emitted for every grid whose pipeline finished, including empty ones.
// Failed grids are not emitted.
var GridCompletedFeed = event.FeedOf[*segment.GridResult]{}

// RunCompletedFeed is emitted once per Runner.Run with the run id.
var RunCompletedFeed = event.FeedOf[string]{}
