package genclient

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

var errNoJSON = errors.New("no JSON value found in response")

// extractJSON は AI の応答テキストから JSON 本体を取り出します。
// コードフェンス、前後の説明文が混在していても最初のオブジェクトまたは配列を拾います。
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", errNoJSON
	}

	if matches := jsonBlockRegex.FindStringSubmatch(text); len(matches) > 1 {
		text = strings.TrimSpace(matches[1])
	}
	if json.Valid([]byte(text)) {
		return text, nil
	}

	// フェンスが無い場合は最初の開き括弧から対応する最後の閉じ括弧までを切り出します
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", errNoJSON
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return "", errNoJSON
	}

	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", errors.New("response contains invalid JSON")
	}
	return candidate, nil
}

// decodeJSON は応答テキストを汎用値にデコードします。スキーマ検証の前段です。
func decodeJSON(raw string) (any, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// remarshal は検証済みの汎用値を型付き構造体へ写します。
func remarshal(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
