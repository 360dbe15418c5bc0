package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&ProcessStep{},
		&Operator{},
		&ProductionLine{},
		&ProductionProcess{},
		&ProcessIngredient{},
		&ProcessEvent{},
		&QualityCheck{},
	}
}
