package respond

import (
	"regexp"
)

var (
	// Stripe のシークレットキー / 制限付きキー / Webhook シークレット
	stripeKeyPattern     = regexp.MustCompile(`\b(sk|rk)_(live|test)_[A-Za-z0-9]+`)
	webhookSecretPattern = regexp.MustCompile(`\bwhsec_[A-Za-z0-9]+`)
	// クライアントシークレットは intent を操作できるので伏せる
	clientSecretPattern = regexp.MustCompile(`\b(pi_[A-Za-z0-9]+)_secret_[A-Za-z0-9]+`)

	// データベースパスワードパターン（DSN内）
	dbPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks credentials in an arbitrary string.
func SanitizeString(msg string) string {
	msg = stripeKeyPattern.ReplaceAllString(msg, "${1}_${2}_****")
	msg = webhookSecretPattern.ReplaceAllString(msg, "whsec_****")
	msg = clientSecretPattern.ReplaceAllString(msg, "${1}_secret_****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
