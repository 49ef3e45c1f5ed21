package domain

import "strings"

// Region est un bucket géographique fixe
type Region string

const (
	RegionKorea    Region = "한국"
	RegionAsia     Region = "아시아"
	RegionEurope   Region = "유럽"
	RegionAmericas Region = "아메리카"
	RegionOther    Region = "기타"
)

// Regions liste les buckets dans l'ordre d'affichage
var Regions = []Region{RegionKorea, RegionAsia, RegionEurope, RegionAmericas, RegionOther}

type regionRule struct {
	region Region
	terms  []string
}

// Règles évaluées dans l'ordre, première correspondance gagnante.
// Correspondance sensible à la casse: "UK" ne doit pas capturer "Ukraine" en minuscules.
var regionRules = []regionRule{
	{RegionKorea, []string{"한국", "Korea"}},
	{RegionAsia, []string{"중국", "일본", "인도", "베트남", "China", "Japan", "India", "Vietnam"}},
	{RegionEurope, []string{"독일", "프랑스", "영국", "이탈리아", "스페인", "Germany", "France", "UK", "Italy", "Spain"}},
	{RegionAmericas, []string{"미국", "캐나다", "멕시코", "브라질", "USA", "Canada", "Mexico", "Brazil"}},
}

// ClassifyRegion associe un pays (texte libre) à un bucket par inclusion de sous-chaîne.
// Fonction totale et déterministe: toute entrée, vide comprise, donne exactement un bucket.
func ClassifyRegion(country string) Region {
	for _, rule := range regionRules {
		for _, term := range rule.terms {
			if strings.Contains(country, term) {
				return rule.region
			}
		}
	}
	return RegionOther
}
