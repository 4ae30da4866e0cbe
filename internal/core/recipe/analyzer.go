package recipe

import (
	"context"
	"fmt"
	"sort"
)

const (
	minIngredients = 3

	bucketPoints   = 15
	proteinBonus   = 10
	vegetableBonus = 10
	grainBonus     = 10
	spiceBonus     = 5
	oilBonus       = 5

	incompatiblePenalty = 30

	excellentScore = 80
	goodScore      = 60

	maxSuggestions = 3
)

var starterSuggestions = []string{
	"Add a protein such as chicken, tofu or eggs",
	"Add a vegetable such as onion, garlic or spinach",
	"Add a grain such as rice, pasta or bread",
}

// 依序檢查的基本分類與對應建議
var essentials = []struct {
	category   Category
	suggestion string
}{
	{CategoryProtein, "Add a protein such as chicken, beans or tofu"},
	{CategoryVegetable, "Add a vegetable such as onion, bell pepper or spinach"},
	{CategoryGrain, "Add a grain such as rice, pasta or bread"},
	{CategorySpice, "Add spices or herbs such as garlic powder, cumin or basil"},
}

// Analyzer 食材相容性分析
type Analyzer struct {
	classifier IngredientClassifier
}

// NewAnalyzer 創建相容性分析器
func NewAnalyzer(classifier IngredientClassifier) *Analyzer {
	return &Analyzer{classifier: classifier}
}

// Analyze 分析食材組合
//
// 少於三項時直接返回 insufficient，不進行任何分類。
// 不相容檢查在分數分級之前進行。
func (a *Analyzer) Analyze(ctx context.Context, ingredients []string) *CompatibilityAnalysis {
	if len(ingredients) < minIngredients {
		return insufficient(len(ingredients))
	}

	buckets := make(map[Category][]string)
	seen := make(map[Category]map[string]bool)
	for _, ing := range ingredients {
		category := a.classifier.Classify(ctx, ing)
		if seen[category] == nil {
			seen[category] = make(map[string]bool)
		}
		if seen[category][ing] {
			continue
		}
		seen[category][ing] = true
		buckets[category] = append(buckets[category], ing)
	}
	for _, items := range buckets {
		sort.Strings(items)
	}

	has := func(c Category) bool { return len(buckets[c]) > 0 }
	score := computeScore(buckets)

	if incompatible(has) {
		score -= incompatiblePenalty
		if score < 0 {
			score = 0
		}
		return &CompatibilityAnalysis{
			Level:           LevelIncompatible,
			Message:         "These ingredients don't work well together. Try separating sweet and savory ingredients.",
			Suggestions:     incompatibleSuggestions(has),
			Score:           score,
			CategoryBuckets: buckets,
		}
	}

	switch {
	case score >= excellentScore:
		return &CompatibilityAnalysis{
			Level:           LevelExcellent,
			Message:         "Excellent combination! These ingredients work great together.",
			Suggestions:     []string{},
			Score:           score,
			CategoryBuckets: buckets,
		}
	case score >= goodScore:
		return &CompatibilityAnalysis{
			Level:           LevelGood,
			Message:         "Good combination with enough variety for a complete dish.",
			Suggestions:     []string{},
			Score:           score,
			CategoryBuckets: buckets,
		}
	default:
		message := "Limited combination. Consider adding more variety."
		if score >= 40 {
			message = "Decent start, but a few additions would make a more complete dish."
		}
		return &CompatibilityAnalysis{
			Level:           LevelLimited,
			Message:         message,
			Suggestions:     missingEssentials(has),
			Score:           score,
			CategoryBuckets: buckets,
		}
	}
}

func insufficient(count int) *CompatibilityAnalysis {
	need := minIngredients - count
	noun := "ingredients"
	if need == 1 {
		noun = "ingredient"
	}
	suggestions := make([]string, len(starterSuggestions))
	copy(suggestions, starterSuggestions)

	return &CompatibilityAnalysis{
		Level:           LevelInsufficient,
		Message:         fmt.Sprintf("Add %d more %s to get recipe suggestions.", need, noun),
		Suggestions:     suggestions,
		Score:           0,
		CategoryBuckets: map[Category][]string{},
	}
}

// computeScore 每個非空分類 15 分，再加上基本分類的加分
func computeScore(buckets map[Category][]string) int {
	score := 0
	for _, items := range buckets {
		if len(items) > 0 {
			score += bucketPoints
		}
	}
	bonuses := []struct {
		category Category
		points   int
	}{
		{CategoryProtein, proteinBonus},
		{CategoryVegetable, vegetableBonus},
		{CategoryGrain, grainBonus},
		{CategorySpice, spiceBonus},
		{CategoryOil, oilBonus},
	}
	for _, b := range bonuses {
		if len(buckets[b.category]) > 0 {
			score += b.points
		}
	}
	return score
}

func incompatible(has func(Category) bool) bool {
	fruit := has(CategoryFruit)
	protein := has(CategoryProtein)
	vegetable := has(CategoryVegetable)
	grain := has(CategoryGrain)

	if fruit && (protein || vegetable) && !grain && !has(CategoryDairy) && !has(CategorySpice) {
		return true
	}
	return fruit && protein && !vegetable && !grain
}

func incompatibleSuggestions(has func(Category) bool) []string {
	suggestions := []string{"Keep sweet fruits separate from savory proteins and vegetables"}
	if !has(CategoryGrain) {
		suggestions = append(suggestions, "Add a grain such as rice or couscous to balance the dish")
	}
	if !has(CategoryDairy) {
		suggestions = append(suggestions, "Add dairy such as yogurt or cheese to bridge sweet and savory flavors")
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// missingEssentials 依 protein、vegetable、grain、spice 順序列出缺少的分類，最多三項
func missingEssentials(has func(Category) bool) []string {
	suggestions := []string{}
	for _, e := range essentials {
		if len(suggestions) == maxSuggestions {
			break
		}
		if !has(e.category) {
			suggestions = append(suggestions, e.suggestion)
		}
	}
	return suggestions
}
