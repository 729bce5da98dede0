// Package nxid generates human-presentable reference numbers such as
// invoice numbers. Tokens are drawn from a restricted alphabet that avoids
// ambiguous glyphs (no 0/O, 1/I), grouped for readability:
//
//	NX-SALE-7K3M-PQ2R-W8YZ
//
// Uniqueness is probabilistic (32^12 token space); callers that persist the
// value must still retry on storage collision.
package nxid

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	alphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	tokenLength = 12
	prefix      = "NX"
)

var entityRE = regexp.MustCompile(`[^A-Z0-9]`)

// Generate returns a new reference number for the given entity label.
// The label is upper-cased, stripped to A-Z0-9, and truncated to 10 chars;
// an empty result falls back to "GEN".
func Generate(entity string) string {
	entity = strings.ToUpper(entity)
	entity = entityRE.ReplaceAllString(entity, "")
	if len(entity) > 10 {
		entity = entity[:10]
	}
	if entity == "" {
		entity = "GEN"
	}

	token := randomToken(tokenLength)
	return prefix + "-" + entity + "-" + token[:4] + "-" + token[4:8] + "-" + token[8:]
}

func randomToken(n int) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure means the platform RNG is broken;
			// nothing sensible can continue.
			panic(err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
