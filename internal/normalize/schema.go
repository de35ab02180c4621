package normalize

import (
	"encoding/json"
	"strings"
)

// Trait keys every style report must carry under profile_traits.
var TraitKeys = []string{"mood", "fashion_style", "color_tone", "expression_pose", "background_setting"}

// Schema names a use case's field set, its acceptance check and the object
// substituted when a model reply is discarded.
type Schema struct {
	Name     string
	fallback []Field
	accept   func(Result) bool
}

// Fallback returns a fresh copy of the schema's fallback object carrying raw.
// The placeholder values pass the schema's own acceptance check.
func (s Schema) Fallback(raw string) Result {
	base := Result{Fields: s.fallback}.clone()
	rawJSON, _ := json.Marshal(raw)
	base.Fields = append(base.Fields, Field{Key: "raw", Value: rawJSON})
	base.Fallback = true
	base.Raw = raw
	return base
}

// Style is the aspiration style report.
var Style = Schema{
	Name: "style",
	fallback: []Field{
		{Key: "main_message", Value: json.RawMessage(`"자연스럽고 편안한 분위기를 추구하는 스타일"`)},
		{Key: "keywords", Value: json.RawMessage(`["내추럴","편안함","데일리"]`)},
		{Key: "profile_traits", Value: json.RawMessage(`{"mood":"차분하고 편안함","fashion_style":"캐주얼 데일리룩","color_tone":"부드러운 뉴트럴 톤","expression_pose":"자연스러운 미소와 정면 포즈","background_setting":"밝은 실내 또는 야외"}`)},
		{Key: "behavior_summary", Value: json.RawMessage(`"꾸미지 않은 일상의 모습을 자연광 아래에서 담는 것을 선호합니다."`)},
		{Key: "ai_comment", Value: json.RawMessage(`"이미지 분석 결과를 정리하지 못해 기본 스타일 가이드를 보여드려요."`)},
	},
	accept: acceptStyle,
}

// Comparison is the profile versus aspiration report.
var Comparison = Schema{
	Name: "comparison",
	fallback: []Field{
		{Key: "distance_to_chugumi", Value: json.RawMessage(`25`)},
		{Key: "distance_evaluation", Value: json.RawMessage(`"추구미와 어느 정도 닮아 있어요."`)},
		{Key: "detailed_interpretation", Value: json.RawMessage(`"분위기는 비슷하지만 색감과 배경에서 조금 차이가 있어요."`)},
		{Key: "matching_points", Value: json.RawMessage(`["자연스러운 표정"]`)},
		{Key: "improvement", Value: json.RawMessage(`"밝은 자연광 아래에서 배경을 단정하게 정리해 보세요."`)},
	},
	accept: acceptComparison,
}

func acceptStyle(r Result) bool {
	if strings.TrimSpace(r.String("main_message")) == "" {
		return false
	}
	traits, ok := r.Object("profile_traits")
	if !ok {
		return false
	}
	for _, key := range TraitKeys {
		if _, ok := traits.Get(key); !ok {
			return false
		}
	}
	return true
}

func acceptComparison(r Result) bool {
	raw, ok := r.Get("distance_to_chugumi")
	if !ok {
		return false
	}
	var distance any
	if err := json.Unmarshal(raw, &distance); err != nil {
		return false
	}
	n, isNumber := distance.(float64)
	if !isNumber || n < 0 || n > 50 {
		return false
	}
	for _, key := range []string{"distance_evaluation", "detailed_interpretation"} {
		if !isString(r, key) {
			return false
		}
	}
	return true
}

func isString(r Result, key string) bool {
	raw, ok := r.Get(key)
	if !ok {
		return false
	}
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return false
	}
	_, ok = v.(string)
	return ok
}
