package cryptomus

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// Sign вычисляет подпись Cryptomus: md5 от base64 тела запроса,
// сконкатенированного с API-ключом.
func Sign(body []byte, apiKey string) string {
	encoded := base64.StdEncoding.EncodeToString(body)
	sum := md5.Sum([]byte(encoded + apiKey))
	return hex.EncodeToString(sum[:])
}

// VerifySign проверяет подпись вебхука. Сравнение выполняется
// за постоянное время.
func VerifySign(body []byte, apiKey, got string) bool {
	want := Sign(body, apiKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
