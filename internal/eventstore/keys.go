package eventstore

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - ev/id/{id}
// - ev/day/{YYYY-MM-DD}/{time}/{id}
//
// Dates are zero-padded canonical strings, so the day index sorts by
// (date, time, id) and a plain range scan yields the query order.

var (
	sep       = byte('/')
	idPrefix  = []byte("ev/id/")
	dayPrefix = []byte("ev/day/")
)

// keyRecord builds the primary record key for an event id.
func keyRecord(id string) []byte {
	k := make([]byte, 0, len(idPrefix)+len(id))
	k = append(k, idPrefix...)
	k = append(k, id...)
	return k
}

// keyDay builds the day-index key. Empty times sort before any clock value,
// matching (date, time) ordering with time optional.
func keyDay(date, clock, id string) []byte {
	k := make([]byte, 0, len(dayPrefix)+len(date)+len(clock)+len(id)+2)
	k = append(k, dayPrefix...)
	k = append(k, date...)
	k = append(k, sep)
	k = append(k, clock...)
	k = append(k, sep)
	k = append(k, id...)
	return k
}

// keyDayLower returns the inclusive scan lower bound for a start date.
func keyDayLower(date string) []byte {
	k := make([]byte, 0, len(dayPrefix)+len(date))
	k = append(k, dayPrefix...)
	k = append(k, date...)
	return k
}

// keyDayUpper returns the exclusive scan upper bound covering all entries on
// the end date.
func keyDayUpper(date string) []byte {
	k := keyDayLower(date)
	return append(k, 0xff)
}

// keyDayAllUpper bounds a scan over the entire day index.
func keyDayAllUpper() []byte {
	k := make([]byte, 0, len(dayPrefix)+1)
	k = append(k, dayPrefix[:len(dayPrefix)-1]...)
	return append(k, 0xff)
}
