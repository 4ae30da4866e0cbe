package recipe

import (
	"fmt"
	"strings"
)

// classificationPrompt 分類提示詞，要求只回傳一個分類名稱
func classificationPrompt(ingredient string) string {
	return fmt.Sprintf(`Classify the cooking ingredient "%s" into exactly one of these categories:
protein, vegetable, fruit, grain, dairy, spice, oil.
Respond with the single category word only, in lowercase, with no punctuation or explanation.`, ingredient)
}

// generationPrompt 食譜生成提示詞
func generationPrompt(ingredients []string, filters Filters) string {
	var constraints strings.Builder
	if filters.Cuisine != "" {
		fmt.Fprintf(&constraints, "- Cuisine: %s\n", filters.Cuisine)
	}
	if filters.Diet != "" {
		fmt.Fprintf(&constraints, "- Diet: %s\n", filters.Diet)
	}
	if filters.Type != "" {
		fmt.Fprintf(&constraints, "- Meal type: %s\n", filters.Type)
	}
	if filters.MaxReadyTime > 0 {
		fmt.Fprintf(&constraints, "- Ready in at most %d minutes\n", filters.MaxReadyTime)
	}
	if filters.Servings > 0 {
		fmt.Fprintf(&constraints, "- Serves at least %d\n", filters.Servings)
	}
	if constraints.Len() == 0 {
		constraints.WriteString("- None\n")
	}

	return fmt.Sprintf(`Create 3 distinct recipes that use these ingredients: %s.
Constraints:
%s
Requirements:
1. Use mainly the listed ingredients; common pantry staples are allowed
2. Times are whole minutes
3. difficulty is one of Easy, Medium, Hard
4. Return compact JSON only, no markdown and no commentary

Return JSON in this shape:
{"recipes":[{"title":"","description":"","prep_time":0,"cook_time":0,"servings":0,"cuisine":"","difficulty":"","ingredients":[{"name":"","amount":0,"unit":""}],"instructions":[""]}]}`,
		strings.Join(ingredients, ", "), constraints.String())
}
