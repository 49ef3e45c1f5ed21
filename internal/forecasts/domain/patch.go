package domain

import (
	"fmt"
	"sort"
	"strings"

	shareddomain "crmdash/internal/shared/domain"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// patchSchema décrit le corps du PATCH. Les champs inconnus sont ignorés.
const patchSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "predictedDate":     {"type": ["string", "null"]},
    "predictedQuantity": {"type": ["number", "null"], "minimum": 0},
    "mape":              {"type": ["number", "null"], "minimum": 0},
    "predictionModel":   {"type": ["string", "null"], "maxLength": 100}
  }
}`

var compiledPatchSchema = mustCompile(patchSchema)

func mustCompile(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid forecast patch schema: %v", err))
	}
	return s
}

// NullableFloat champ numérique du PATCH: Set si la clé est présente, Value nil pour un null explicite
type NullableFloat struct {
	Set   bool
	Value *float64
}

func (f NullableFloat) value() any {
	if f.Value == nil {
		return nil
	}
	return *f.Value
}

// Patch est une mise à jour partielle d'une prévision.
// Date et modèle: nil = champ non fourni. Nombres: une clé présente à null remet la colonne à NULL.
type Patch struct {
	PredictedDate     *string
	PredictedQuantity NullableFloat
	Mape              NullableFloat
	PredictionModel   *string
}

// ParsePatch valide le corps contre le schéma puis le décode clé par clé
func ParsePatch(body []byte) (Patch, error) {
	result, err := compiledPatchSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return Patch{}, fmt.Errorf("%w: malformed JSON body", shareddomain.ErrInvalidInput)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Patch{}, fmt.Errorf("%w: %s", shareddomain.ErrInvalidInput, strings.Join(msgs, "; "))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", shareddomain.ErrInvalidInput, err)
	}

	var p Patch
	if err := decodeField(raw, "predictedDate", &p.PredictedDate); err != nil {
		return Patch{}, err
	}
	if err := decodeField(raw, "predictionModel", &p.PredictionModel); err != nil {
		return Patch{}, err
	}
	if p.PredictedQuantity, err = decodeNullable(raw, "predictedQuantity"); err != nil {
		return Patch{}, err
	}
	if p.Mape, err = decodeNullable(raw, "mape"); err != nil {
		return Patch{}, err
	}

	if p.PredictedDate != nil && *p.PredictedDate != "" {
		if _, err := shareddomain.ParseDate(*p.PredictedDate); err != nil {
			return Patch{}, err
		}
	}
	return p, nil
}

func decodeField[T any](raw map[string]json.RawMessage, key string, dst **T) error {
	msg, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", shareddomain.ErrInvalidInput, key, err)
	}
	return nil
}

func decodeNullable(raw map[string]json.RawMessage, key string) (NullableFloat, error) {
	if _, ok := raw[key]; !ok {
		return NullableFloat{}, nil
	}
	f := NullableFloat{Set: true}
	if err := decodeField(raw, key, &f.Value); err != nil {
		return NullableFloat{}, err
	}
	return f, nil
}

// Values retourne les colonnes à écrire.
// Date et modèle ne s'appliquent que non vides, les nombres dès que la clé est présente (null compris).
func (p Patch) Values() map[string]any {
	values := make(map[string]any, 4)
	if p.PredictedDate != nil && *p.PredictedDate != "" {
		d, _ := shareddomain.ParseDate(*p.PredictedDate)
		values[ColPredictedDate] = d.String()
	}
	if p.PredictedQuantity.Set {
		values[ColPredictedQuantity] = p.PredictedQuantity.value()
	}
	if p.Mape.Set {
		values[ColMape] = p.Mape.value()
	}
	if p.PredictionModel != nil && *p.PredictionModel != "" {
		values[ColPredictionModel] = *p.PredictionModel
	}
	return values
}

// IsEmpty est vrai quand aucun champ ne sera écrit
func (p Patch) IsEmpty() bool {
	return len(p.Values()) == 0
}

// Fields liste les colonnes modifiées, triées
func (p Patch) Fields() []string {
	values := p.Values()
	fields := make([]string, 0, len(values))
	for col := range values {
		fields = append(fields, col)
	}
	sort.Strings(fields)
	return fields
}
