package transaction

// Codec serializes transaction JSON fields into the ledger's binary format.
// The engine never encodes transactions itself.
type Codec interface {
	// EncodeForSigning returns the bytes to sign, including the
	// single-signing prefix 0x53545800.
	EncodeForSigning(fields map[string]interface{}) ([]byte, error)
	// Encode returns the full binary transaction, signature included.
	Encode(fields map[string]interface{}) ([]byte, error)
}

var (
	// prefixes hashed in front of a serialized transaction
	txSignPrefix = []byte{0x53, 0x54, 0x58, 0x00} // STX\0
	txIDPrefix   = []byte{0x54, 0x58, 0x4E, 0x00} // TXN\0
)
