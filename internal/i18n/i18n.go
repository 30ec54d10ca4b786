// Package i18n 提供接口错误信息的多语言文案。
package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LocaleZhCN = "zh-CN"
	LocaleZhTW = "zh-TW"
	LocaleEnUS = "en-US"

	// DefaultLocale 未识别语言时的回退语言
	DefaultLocale = LocaleZhCN
)

var supportedTags = []language.Tag{
	language.SimplifiedChinese,
	language.TraditionalChinese,
	language.AmericanEnglish,
}

var tagLocales = []string{LocaleZhCN, LocaleZhTW, LocaleEnUS}

var matcher = language.NewMatcher(supportedTags)

// ResolveLocale 解析请求语言：?lang= 优先，其次 X-Locale，最后 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	if lang := strings.TrimSpace(c.GetHeader("X-Locale")); lang != "" {
		return NormalizeLocale(lang)
	}
	if accept := strings.TrimSpace(c.GetHeader("Accept-Language")); accept != "" {
		return NormalizeLocale(accept)
	}
	return DefaultLocale
}

// NormalizeLocale 将任意语言标签归一到支持的语言
func NormalizeLocale(raw string) string {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(tagLocales) {
		return DefaultLocale
	}
	return tagLocales[index]
}

// T 获取文案，缺失时依次回退到默认语言和 key 本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 获取带格式参数的文案
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
