package identity

import "math/big"

// base58Alphabet is the Bitcoin/IPFS base58btc alphabet (no 0, O, I, l).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Index = func() map[byte]int64 {
	m := make(map[byte]int64, len(base58Alphabet))
	for i := 0; i < len(base58Alphabet); i++ {
		m[base58Alphabet[i]] = int64(i)
	}
	return m
}()

// base58Encode renders data as base58btc, preserving leading-zero bytes as
// leading '1' characters per the multibase convention. No base58 library
// appears anywhere in the example corpus (DESIGN.md), so this is a
// deliberate, narrowly-scoped stdlib implementation over math/big.
func base58Encode(data []byte) string {
	zero := big.NewInt(0)
	base := big.NewInt(58)
	num := new(big.Int).SetBytes(data)

	var out []byte
	for num.Cmp(zero) > 0 {
		mod := new(big.Int)
		num.DivMod(num, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	reverse(out)
	return string(out)
}

func base58Decode(s string) ([]byte, error) {
	num := big.NewInt(0)
	base := big.NewInt(58)
	for i := 0; i < len(s); i++ {
		digit, ok := base58Index[s[i]]
		if !ok {
			return nil, errInvalidBase58Char(s[i])
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(digit))
	}

	decoded := num.Bytes()
	leadingZeros := 0
	for i := 0; i < len(s) && s[i] == base58Alphabet[0]; i++ {
		leadingZeros++
	}
	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

type errInvalidBase58Char byte

func (e errInvalidBase58Char) Error() string {
	return "invalid base58 character: " + string(rune(e))
}
