package recipe

import (
	"regexp"
	"strings"
)

// rule 單一分類規則
type rule struct {
	category Category
	pattern  *regexp.Regexp
}

func keywords(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)
}

// rules 依序比對，第一個符合的分類勝出。
// 順序固定為 protein、vegetable、fruit、grain、dairy、spice、oil。
var rules = []rule{
	{CategoryProtein, keywords(
		`chicken`, `beef`, `pork`, `lamb`, `mutton`, `turkey`, `duck`, `bacon`, `ham`, `sausages?`,
		`steaks?`, `meat`, `meatballs?`, `venison`, `fish`, `salmon`, `tuna`, `cod`, `tilapia`,
		`trout`, `halibut`, `anchov(?:y|ies)`, `sardines?`, `shrimps?`, `prawns?`, `crabs?`,
		`lobsters?`, `scallops?`, `mussels?`, `clams?`, `oysters?`, `squid`, `tofu`, `tempeh`,
		`seitan`, `eggs?`, `lentils?`, `chickpeas?`, `beans?`, `edamame`, `peanuts?`,
		`almonds?`, `walnuts?`, `cashews?`, `pecans?`,
	)},
	{CategoryVegetable, keywords(
		`onions?`, `garlic`, `tomato(?:es)?`, `potato(?:es)?`, `carrots?`, `celery`, `broccoli`,
		`cauliflower`, `spinach`, `kale`, `lettuce`, `cabbages?`, `zucchinis?`, `eggplants?`,
		`aubergines?`, `cucumbers?`, `mushrooms?`, `bell peppers?`, `peas?`, `corn`, `asparagus`,
		`leeks?`, `shallots?`, `scallions?`, `beets?`, `radish(?:es)?`, `squash`, `pumpkins?`,
		`okra`, `artichokes?`, `brussels sprouts?`, `bok choy`, `arugula`, `chard`, `turnips?`,
		`yams?`, `avocados?`, `sprouts?`, `greens`,
	)},
	{CategoryFruit, keywords(
		`apples?`, `bananas?`, `oranges?`, `lemons?`, `limes?`, `mangos?`, `mangoes`, `pineapples?`,
		`strawberr(?:y|ies)`, `blueberr(?:y|ies)`, `raspberr(?:y|ies)`, `blackberr(?:y|ies)`,
		`cranberr(?:y|ies)`, `berr(?:y|ies)`, `grapes?`, `peach(?:es)?`, `pears?`, `plums?`,
		`cherr(?:y|ies)`, `kiwis?`, `melons?`, `watermelons?`, `papayas?`, `apricots?`, `figs?`,
		`pomegranates?`, `raisins?`,
	)},
	{CategoryGrain, keywords(
		`rice`, `pasta`, `spaghetti`, `noodles?`, `bread`, `flour`, `oats?`, `oatmeal`, `quinoa`,
		`barley`, `couscous`, `tortillas?`, `wheat`, `bulgur`, `farro`, `cornmeal`, `polenta`,
		`cereal`, `macaroni`, `penne`, `ramen`, `buns?`, `crackers?`, `millet`, `baguettes?`,
	)},
	{CategoryDairy, keywords(
		`milk`, `cheese`, `butter`, `buttermilk`, `cream`, `yogh?urt`, `parmesan`, `mozzarella`,
		`cheddar`, `feta`, `ricotta`, `ghee`, `kefir`,
	)},
	{CategorySpice, keywords(
		`salt`, `pepper(?:corns?)?`, `cumin`, `paprika`, `turmeric`, `cinnamon`, `oregano`, `basil`,
		`thyme`, `rosemary`, `parsley`, `cilantro`, `coriander`, `chil(?:i|li|e)s?`, `cayenne`,
		`nutmeg`, `cloves?`, `ginger`, `curry`, `sage`, `dill`, `bay leaf`, `bay leaves`, `vanilla`,
		`saffron`, `cardamom`, `mint`, `herbs?`, `spices?`, `seasoning`, `garam masala`,
	)},
	{CategoryOil, keywords(
		`oils?`, `lard`, `shortening`, `margarine`, `cooking spray`,
	)},
}

// classifyByRules 以規則表分類已正規化的食材，沒有符合時返回 other
func classifyByRules(normalized string) Category {
	for _, r := range rules {
		if r.pattern.MatchString(normalized) {
			return r.category
		}
	}
	return CategoryOther
}

// normalize 去除前後空白並轉小寫
func normalize(ingredient string) string {
	return strings.ToLower(strings.TrimSpace(ingredient))
}
