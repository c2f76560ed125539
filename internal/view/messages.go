package view

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		"title.error":      "Something went wrong",
		"message.error":    "An unexpected error occurred while processing your request.",
		"title.error1":     "Calculation error",
		"message.error1":   "The request failed because of an arithmetic fault.",
		"title.error2":     "Missing data",
		"message.error2":   "The request referred to something that does not exist.",
		"title.403":        "Access denied",
		"message.403":      "You do not have permission to view this page.",
		"title.locked":     "Account locked",
		"message.locked":   "This account is locked. Please contact an administrator.",
		"label.request_id": "Request ID",
		"label.home":       "Back to home",
	},
	language.SimplifiedChinese: {
		"title.error":      "系统错误",
		"message.error":    "处理请求时发生了意外错误。",
		"title.error1":     "计算错误",
		"message.error1":   "请求因算术错误而失败。",
		"title.error2":     "数据缺失",
		"message.error2":   "请求引用了不存在的数据。",
		"title.403":        "没有权限",
		"message.403":      "您没有访问此页面的权限。",
		"title.locked":     "账户已锁定",
		"message.locked":   "该账户已被锁定，请联系管理员。",
		"label.request_id": "请求编号",
		"label.home":       "返回首页",
	},
}

func newCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range messages {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("register message %s/%s: %w", tag, key, err)
			}
		}
	}
	return b, nil
}
