package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ── PostgreSQL TEXT[] 自定义类型 ──

// StringArray 对应 PostgreSQL TEXT[] 类型，实现 GORM Scanner/Valuer 接口。
// 仅支持一维数组；元素按数组字面量规则加引号与反斜杠转义。
type StringArray []string

// Scan 将 PostgreSQL 返回的 {a,"b c","d\"e"} 文本解析为 []string。
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("StringArray.Scan: unsupported type %T", src)
	}
	arr, err := parseArrayLiteral(s)
	if err != nil {
		return err
	}
	*a = arr
	return nil
}

// Value 将 []string 序列化为 PostgreSQL {"a","b"} 文本。
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	parts := make([]string, len(a))
	for i, s := range a {
		parts[i] = `"` + arrayEscaper.Replace(s) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

var arrayEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// parseArrayLiteral 解析一维数组字面量，未加引号的 NULL 视为空串
func parseArrayLiteral(s string) (StringArray, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("StringArray.Scan: invalid array literal %q", s)
	}
	body := s[1 : len(s)-1]
	arr := StringArray{}
	if strings.TrimSpace(body) == "" {
		return arr, nil
	}

	var b strings.Builder
	quoted, inQuotes := false, false
	flush := func() {
		elem := b.String()
		if !quoted {
			elem = strings.TrimSpace(elem)
			if strings.EqualFold(elem, "NULL") {
				elem = ""
			}
		}
		arr = append(arr, elem)
		b.Reset()
		quoted = false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\':
			if i+1 >= len(body) {
				return nil, fmt.Errorf("StringArray.Scan: dangling escape in %q", s)
			}
			i++
			b.WriteByte(body[i])
		case c == '"':
			inQuotes = !inQuotes
			quoted = true
		case c == ',' && !inQuotes:
			flush()
		default:
			b.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("StringArray.Scan: unterminated quote in %q", s)
	}
	flush()
	return arr, nil
}

// BaseModel 通用时间戳字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
