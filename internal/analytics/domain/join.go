package domain

// Joined associe une ligne A à sa première correspondance B (nil si absente)
type Joined[A, B any] struct {
	Row   A
	Match *B
}

// Matched indique si la jointure a trouvé une ligne
func (j Joined[A, B]) Matched() bool {
	return j.Match != nil
}

// Index construit l'index clé -> ligne d'une collection cible.
// En cas de clés dupliquées, la PREMIÈRE ligne gagne.
func Index[B any, K comparable](targets []B, pk func(B) K) map[K]*B {
	idx := make(map[K]*B, len(targets))
	for i := range targets {
		k := pk(targets[i])
		if _, exists := idx[k]; exists {
			continue
		}
		idx[k] = &targets[i]
	}
	return idx
}

// ============================================================================
// JOINTURE EN MÉMOIRE
//
// Contrat:
//   - Une sortie par ligne de rows, dans le même ordre: len(out) == len(rows)
//   - fk retourne ok=false pour une clé étrangère NULL: pas de correspondance
//   - Pas de correspondance = Match nil, la ligne n'est JAMAIS retirée
//   - Chaînable: le résultat d'une jointure est le côté A de la suivante
//
// COMPLEXITÉ: O(|A| + |B|) via Index, au lieu de O(|A| × |B|) en balayage
// ============================================================================
func Join[A, B any, K comparable](rows []A, targets []B, fk func(A) (K, bool), pk func(B) K) []Joined[A, B] {
	idx := Index(targets, pk)
	out := make([]Joined[A, B], len(rows))
	for i, row := range rows {
		out[i].Row = row
		if k, ok := fk(row); ok {
			out[i].Match = idx[k]
		}
	}
	return out
}

// JoinLinear est la même jointure en balayage linéaire (première correspondance).
// Référence pour les tests d'équivalence et les benchmarks.
func JoinLinear[A, B any, K comparable](rows []A, targets []B, fk func(A) (K, bool), pk func(B) K) []Joined[A, B] {
	out := make([]Joined[A, B], len(rows))
	for i, row := range rows {
		out[i].Row = row
		k, ok := fk(row)
		if !ok {
			continue
		}
		for j := range targets {
			if pk(targets[j]) == k {
				out[i].Match = &targets[j]
				break
			}
		}
	}
	return out
}
