package redis

// Key layout:
//
//	battlegrid:users    hash  username -> user JSON
//	battlegrid:results  list  result JSON, appended in finish order
const (
	keyPrefix  = "battlegrid:"
	usersKey   = keyPrefix + "users"
	resultsKey = keyPrefix + "results"
)
