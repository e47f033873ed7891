package misc

const (
	// SerializationVersion is the current version byte written by
	// serialize_state. deserialize_state rejects any other value.
	SerializationVersion byte = 1

	// KeySize is the fixed length, in bytes, of every factor key,
	// unlock key, and derived key in the protocol.
	KeySize = 16

	// PBKDF2Iterations is the fixed iteration count for both the
	// knowledge-factor key derivation and the activation-OTP key
	// derivation. Changing it breaks interoperability with the server.
	PBKDF2Iterations = 10000

	// FilePermissions is applied to the persisted session blob and the
	// audit log file.
	FilePermissions = 0600
)
