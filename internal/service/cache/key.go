package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

// Key is the content hash of an utterance for a language pair. It depends only on the
// lower-cased, trimmed text and the two language codes.
func Key(text, sourceLanguage, targetLanguage string) string {
	sum := sha256.Sum256([]byte(util.Normalize(text) + "|" + sourceLanguage + "|" + targetLanguage))
	return hex.EncodeToString(sum[:])
}
