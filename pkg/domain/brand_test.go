package domain

import (
	"errors"
	"testing"
)

func TestBrandIdentity_Validate(t *testing.T) {
	valid := BrandIdentity{Name: "Roast", Voice: "warm", Colors: []string{"#3B2F2F"}, Tone: "calm", Style: "rustic"}

	tests := []struct {
		name    string
		mutate  func(b *BrandIdentity)
		wantErr bool
	}{
		{name: "全項目あり", mutate: func(b *BrandIdentity) {}},
		{name: "名前なし", mutate: func(b *BrandIdentity) { b.Name = " " }, wantErr: true},
		{name: "色なし", mutate: func(b *BrandIdentity) { b.Colors = nil }, wantErr: true},
		{name: "スタイルなし", mutate: func(b *BrandIdentity) { b.Style = "" }, wantErr: true},
		{name: "ロゴは任意", mutate: func(b *BrandIdentity) { b.AssetData = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid.Clone()
			tt.mutate(&b)
			err := b.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, err=%v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("ErrInvalid でラップされていません: %v", err)
			}
		})
	}
}

func TestNormalizePlatforms(t *testing.T) {
	got, err := NormalizePlatforms([]string{"Instagram", " Twitter (X) ", "Instagram", ""})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(got) != 2 || got[0] != PlatformInstagram || got[1] != PlatformTwitter {
		t.Errorf("想定外の結果: %v", got)
	}

	if _, err := NormalizePlatforms([]string{"MySpace"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("未対応プラットフォームでエラーになりませんでした: %v", err)
	}
}

func TestStep_Before(t *testing.T) {
	if !StepBrand.Before(StepCampaign) || StepReview.Before(StepGeneration) {
		t.Error("段階の順序が正しくありません")
	}
	if Step("nowhere").Valid() {
		t.Error("未知の段階が有効と判定されました")
	}
}
