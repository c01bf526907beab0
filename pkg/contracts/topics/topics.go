package topics

const (
	// Apostas
	WagerPlaced = "wager_placed"

	// DLQs
	WagerPlacedDLQ = "wager_placed_dlq"

	// Canais Redis Pub/Sub
	ContestSnapshots = "contest_snapshots"
)
