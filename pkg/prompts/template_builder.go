package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-prompt-kit/resource"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// TextPromptBuilder はプロンプトテンプレート群を保持し、モード選択のロジックを内包します。
type TextPromptBuilder struct {
	templates map[string]*template.Template
}

// NewTextPromptBuilder は埋め込みテンプレートを読み込み、TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	sources, err := resource.Load(templateFS, ".", "")
	if err != nil {
		return nil, fmt.Errorf("プロンプトテンプレートの読み込みに失敗しました: %w", err)
	}
	return newTextPromptBuilder(sources)
}

func newTextPromptBuilder(sources map[string]string) (*TextPromptBuilder, error) {
	for _, mode := range requiredModes {
		if _, ok := sources[mode]; !ok {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' が見つかりません", mode)
		}
	}

	parsedTemplates := make(map[string]*template.Template, len(sources))
	for mode, content := range sources {
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' の読み込みに失敗しました: 内容が空です", mode)
		}
		tmpl, err := template.New(mode).Funcs(templateFuncs).Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsedTemplates[mode] = tmpl
	}

	return &TextPromptBuilder{
		templates: parsedTemplates,
	}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data TemplateData) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s'", mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}

	return strings.TrimSpace(sb.String()), nil
}
