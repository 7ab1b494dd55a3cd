package dice

// Roll evaluates an Expression using the given Source.
//
// Precondition: expr must come from Parse or Range; src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count and
// expr.Min() <= result.Total() <= expr.Max().
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		if expr.Sides == 1 {
			rolled[i] = 1
			continue
		}
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}
