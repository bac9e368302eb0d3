package genclient

import (
	"fmt"
	"slices"

	"google.golang.org/genai"
)

func stringSchema() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func stringArraySchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: stringSchema()}
}

var brandSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":   stringSchema(),
		"voice":  stringSchema(),
		"colors": stringArraySchema(),
		"tone":   stringSchema(),
		"style":  stringSchema(),
	},
	Required: []string{"name", "voice", "colors", "tone", "style"},
}

var campaignSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"platforms":  stringArraySchema(),
		"postType":   stringSchema(),
		"keyMessage": stringSchema(),
		"constraints": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"tone":            stringSchema(),
				"cta":             stringSchema(),
				"themeColors":     stringSchema(),
				"includeLogo":     {Type: genai.TypeBoolean},
				"realisticImages": {Type: genai.TypeBoolean},
				"videoPreview":    {Type: genai.TypeBoolean},
			},
			Required: []string{"tone", "cta", "themeColors", "includeLogo", "realisticImages", "videoPreview"},
		},
	},
	Required: []string{"platforms", "postType", "keyMessage", "constraints"},
}

var variationsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":            stringSchema(),
			"platform":      stringSchema(),
			"caption":       stringSchema(),
			"reasoning":     stringSchema(),
			"imagePrompt":   stringSchema(),
			"suggestedTags": stringArraySchema(),
			"overlayText":   stringSchema(),
			"overlayConfig": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"position":       {Type: genai.TypeString, Enum: []string{"top", "middle", "bottom"}},
					"color":          stringSchema(),
					"fontSize":       {Type: genai.TypeNumber},
					"showBackground": {Type: genai.TypeBoolean},
				},
				Required: []string{"position", "color", "fontSize", "showBackground"},
			},
		},
		Required: []string{"id", "platform", "caption", "reasoning", "imagePrompt", "suggestedTags", "overlayText", "overlayConfig"},
	},
}

var refineSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"caption":     stringSchema(),
		"imagePrompt": stringSchema(),
		"reasoning":   stringSchema(),
	},
	Required: []string{"caption", "imagePrompt", "reasoning"},
}

// validate は encoding/json でデコードした値がスキーマに適合するかを検査します。
// 型・必須キー・列挙値を確認し、最初に見つかった不一致をパス付きで返します。
func validate(v any, s *genai.Schema) error {
	return validateAt("$", v, s)
}

func validateAt(path string, v any, s *genai.Schema) error {
	if s == nil {
		return nil
	}
	if v == nil {
		if s.Nullable != nil && *s.Nullable {
			return nil
		}
		return fmt.Errorf("%s: value is null", path)
	}

	switch s.Type {
	case genai.TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, v)
		}
		for _, key := range s.Required {
			if _, ok := obj[key]; !ok {
				return fmt.Errorf("%s: missing required field %q", path, key)
			}
		}
		for key, prop := range s.Properties {
			val, ok := obj[key]
			if !ok {
				continue
			}
			if err := validateAt(path+"."+key, val, prop); err != nil {
				return err
			}
		}
	case genai.TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", path, v)
		}
		for i, item := range arr {
			if err := validateAt(fmt.Sprintf("%s[%d]", path, i), item, s.Items); err != nil {
				return err
			}
		}
	case genai.TypeString:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %T", path, v)
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return fmt.Errorf("%s: %q is not one of %v", path, str, s.Enum)
		}
	case genai.TypeNumber:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("%s: expected number, got %T", path, v)
		}
	case genai.TypeInteger:
		f, ok := v.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("%s: expected integer, got %v", path, v)
		}
	case genai.TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", path, v)
		}
	}
	return nil
}
