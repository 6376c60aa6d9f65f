package notion

import (
	"time"

	"github.com/jomei/notionapi"
)

// FieldType 페이지 속성을 읽을 때 기대하는 타입
type FieldType string

const (
	FieldTitle       FieldType = "title"
	FieldRichText    FieldType = "rich_text"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multi_select"
	FieldDate        FieldType = "date"
)

const isoDate = "2006-01-02"

// Extract 속성 값을 타입에 맞게 읽어 반환합니다.
// 속성이 없거나 지원하지 않는 타입이면 nil 을 반환합니다.
// 속성은 있지만 값이 비어있으면 빈 문자열(또는 빈 슬라이스)을 반환합니다.
func Extract(props notionapi.Properties, name string, typ FieldType) any {
	switch typ {
	case FieldTitle:
		if v, ok := Title(props, name); ok {
			return v
		}
	case FieldRichText:
		if v, ok := RichText(props, name); ok {
			return v
		}
	case FieldSelect:
		if v, ok := Select(props, name); ok {
			return v
		}
	case FieldMultiSelect:
		if v, ok := MultiSelect(props, name); ok {
			return v
		}
	case FieldDate:
		if v, ok := DateStart(props, name); ok {
			return v
		}
	}
	return nil
}

// Title title 속성의 첫 번째 텍스트 조각을 반환합니다
func Title(props notionapi.Properties, name string) (string, bool) {
	prop, ok := lookup(props, name)
	if !ok {
		return "", false
	}
	if p, ok := prop.(*notionapi.TitleProperty); ok {
		return firstPlainText(p.Title), true
	}
	return "", true
}

// RichText rich_text 속성의 첫 번째 텍스트 조각을 반환합니다
func RichText(props notionapi.Properties, name string) (string, bool) {
	prop, ok := lookup(props, name)
	if !ok {
		return "", false
	}
	if p, ok := prop.(*notionapi.RichTextProperty); ok {
		return firstPlainText(p.RichText), true
	}
	return "", true
}

// Select select 속성의 옵션 이름을 반환합니다
func Select(props notionapi.Properties, name string) (string, bool) {
	prop, ok := lookup(props, name)
	if !ok {
		return "", false
	}
	if p, ok := prop.(*notionapi.SelectProperty); ok {
		return p.Select.Name, true
	}
	return "", true
}

// MultiSelect multi_select 속성의 옵션 이름들을 순서대로 반환합니다
func MultiSelect(props notionapi.Properties, name string) ([]string, bool) {
	prop, ok := lookup(props, name)
	if !ok {
		return nil, false
	}
	names := []string{}
	if p, ok := prop.(*notionapi.MultiSelectProperty); ok {
		for _, opt := range p.MultiSelect {
			names = append(names, opt.Name)
		}
	}
	return names, true
}

// DateStart date 속성의 시작 날짜를 YYYY-MM-DD 형식으로 반환합니다
func DateStart(props notionapi.Properties, name string) (string, bool) {
	prop, ok := lookup(props, name)
	if !ok {
		return "", false
	}
	p, ok := prop.(*notionapi.DateProperty)
	if !ok || p.Date == nil || p.Date.Start == nil {
		return "", true
	}
	return time.Time(*p.Date.Start).Format(isoDate), true
}

func lookup(props notionapi.Properties, name string) (notionapi.Property, bool) {
	if props == nil {
		return nil, false
	}
	prop, ok := props[name]
	if !ok || prop == nil {
		return nil, false
	}
	return prop, true
}

func firstPlainText(runs []notionapi.RichText) string {
	if len(runs) == 0 {
		return ""
	}
	return runs[0].PlainText
}
