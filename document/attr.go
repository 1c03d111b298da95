package document

import (
	"fmt"
	"strconv"
	"strings"
)

// AttrReader 属性转换器
// 功能：把XML属性字符串转换为数值，只记录遇到的第一个错误
// 说明：调用方连续读取若干属性后统一检查Err，从而把一个元素的全部字段作为整体校验
type AttrReader struct {
	err error
}

func (r *AttrReader) fail(name, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("attribute %s=%q: %w", name, value, err)
	}
}

// Float 可选浮点属性，空字符串返回def
func (r *AttrReader) Float(name, value string, def float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(name, value, err)
		return def
	}
	return v
}

// RequiredFloat 必需浮点属性
func (r *AttrReader) RequiredFloat(name, value string) float64 {
	if strings.TrimSpace(value) == "" {
		r.fail(name, value, ErrMissingAttribute)
		return 0
	}
	return r.Float(name, value, 0)
}

// Int 可选整数属性
func (r *AttrReader) Int(name, value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		r.fail(name, value, err)
		return def
	}
	return v
}

// RequiredString 必需字符串属性
func (r *AttrReader) RequiredString(name, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		r.fail(name, value, ErrMissingAttribute)
	}
	return value
}

// Fail 记录调用方自行检查出的错误
func (r *AttrReader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Err 返回第一个错误
func (r *AttrReader) Err() error {
	return r.err
}
