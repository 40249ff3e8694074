package ddop

// PoolError is returned when a pool fails to deserialise. Modeled on the
// teacher's typed-error-with-lookup-table pattern (driver.go CANopenError).
type PoolError int8

const (
	PoolErrorNone PoolError = iota
	PoolErrorTruncated
	PoolErrorUnknownObjectType
	PoolErrorBadReference
	PoolErrorEmpty
)

var poolErrorText = map[PoolError]string{
	PoolErrorNone:              "no error",
	PoolErrorTruncated:         "pool ended mid-object",
	PoolErrorUnknownObjectType: "unrecognised object type byte",
	PoolErrorBadReference:      "object references a non-existent object id",
	PoolErrorEmpty:             "no chunks were stored for this partner",
}

func (e PoolError) Error() string {
	if text, ok := poolErrorText[e]; ok {
		return text
	}
	return "unknown pool error"
}
