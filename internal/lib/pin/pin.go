// Package pin извлекает проверочный код из текста входящего SMS.
package pin

import "regexp"

// Порядок важен: сначала явные маркеры кода, затем голая группа цифр.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)code[:\s]*(\d+)`),
	regexp.MustCompile(`(?i)verification[:\s]*(\d+)`),
	regexp.MustCompile(`(?i)pin[:\s]*(\d+)`),
	regexp.MustCompile(`\b(\d{4,8})\b`),
}

// Extract возвращает первый найденный PIN в сообщении или пустую строку,
// если ни один из шаблонов не совпал.
func Extract(sms string) string {
	if sms == "" {
		return ""
	}
	for _, p := range patterns {
		if m := p.FindStringSubmatch(sms); m != nil {
			return m[1]
		}
	}
	return ""
}
