package entity

type User struct {
	Base

	Name string

	// PointsEarned is cumulative and never decreases; it feeds leaderboard
	// reads. PointsBalance is the spendable amount (earned - spent), never
	// negative. Both columns are written only by the ledger append path.
	PointsEarned  int64
	PointsBalance int64

	// BalanceVersion increments with every balance mutation.
	BalanceVersion int64
}
