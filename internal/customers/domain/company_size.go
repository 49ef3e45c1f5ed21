package domain

// Tailles d'entreprise connues, de la plus grande à la plus petite
const (
	SizeLarge  = "대기업"
	SizeMedium = "중견기업"
	SizeSmall  = "중소기업"
)

// CompanySizeRank ordonne grand < moyen < petit < inconnu
func CompanySizeRank(size string) int {
	switch size {
	case SizeLarge:
		return 1
	case SizeMedium:
		return 2
	case SizeSmall:
		return 3
	default:
		return 4
	}
}
