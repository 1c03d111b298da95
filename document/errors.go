// 场景文档（路网、场景）解析的公共错误类型与属性读取工具
package document

import (
	"errors"
	"fmt"
)

// ParseError 文档整体无法解析（XML格式错误或缺少根元素）
// 说明：该错误导致整个文档被拒绝，总是返回给调用方
type ParseError struct {
	Doc string // 文档类型，如 OpenDRIVE、OpenSCENARIO
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s document: %v", e.Doc, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ElementParseError 单个元素（道路、路口、事件等）解析失败
// 说明：该元素被跳过，错误以警告形式汇总返回，其余元素继续解析
type ElementParseError struct {
	Element string // 元素类型
	ID      string // 元素标识，可能为空
	Err     error
}

func (e *ElementParseError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Element, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Element, e.ID, e.Err)
}

func (e *ElementParseError) Unwrap() error {
	return e.Err
}

// ErrMissingAttribute 缺少必需属性
var ErrMissingAttribute = errors.New("missing required attribute")
