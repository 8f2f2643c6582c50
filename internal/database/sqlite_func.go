package database

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// foldFunc is the SQLite scalar function that lower-cases text with Go's
// Unicode case mapping ("QUÉBEC" → "québec").  It is registered for every
// connection the sqlite driver opens, so indexes built on it stay usable.
const foldFunc = "fold"

func init() {
	err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case nil:
			return nil, nil
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			// numbers compare as themselves
			return v, nil
		}
	})
	if err != nil {
		panic("register sqlite fold(): " + err.Error())
	}
}
