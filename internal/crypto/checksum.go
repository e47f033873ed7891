package crypto

// base32Alphabet is the RFC4648 base32 alphabet the activation-code
// grammar uses (no padding character ever appears — codes are a fixed
// 20 characters).
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// checksumPolynomial and checksumInit parameterize the CRC-16/CCITT
// variant used to compute the activation code's trailing checksum
// character. The initial register was chosen so that a run of 19 'A'
// characters — value 0 in the base32 alphabet — checksums to 'E'.
const (
	checksumPolynomial uint16 = 0x1021
	checksumInit       uint16 = 0x5A5A
)

// base32SymbolValue returns c's 5-bit value in base32Alphabet, or -1 if
// c is not a valid activation-code character.
func base32SymbolValue(c byte) int {
	for i := 0; i < len(base32Alphabet); i++ {
		if base32Alphabet[i] == c {
			return i
		}
	}
	return -1
}

// ActivationChecksum computes the Luhn-style checksum character for the
// first 19 characters of an activation code: a CRC-16/CCITT run over
// each character's 5-bit symbol value, folded to 5 bits with crc%32 and
// mapped back through the base32 alphabet.
//
// prefix must be exactly 19 characters drawn from base32Alphabet;
// callers validate the grammar before calling this.
func ActivationChecksum(prefix string) byte {
	crc := checksumInit
	for i := 0; i < len(prefix); i++ {
		v := base32SymbolValue(prefix[i])
		crc ^= uint16(v) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ checksumPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return base32Alphabet[crc%32]
}
