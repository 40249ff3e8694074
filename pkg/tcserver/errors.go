package tcserver

// ActivationError is returned by Server.ActivatePool, modeled on the
// teacher's typed-error-with-lookup-table pattern (driver.go CANopenError).
type ActivationError int8

const (
	ActivationErrorNone ActivationError = iota
	ActivationErrorNoChunks
	ActivationErrorParseFailed
)

var activationErrorText = map[ActivationError]string{
	ActivationErrorNone:        "no error",
	ActivationErrorNoChunks:    "no pool chunks were stored for this partner",
	ActivationErrorParseFailed: "stored chunks did not deserialise into a valid pool",
}

func (e ActivationError) Error() string {
	if text, ok := activationErrorText[e]; ok {
		return text
	}
	return "unknown activation error"
}
