package dashboard

func applyOrderOverride(current, order []string) []string {
	if len(order) == 0 {
		return current
	}
	known := make(map[string]struct{}, len(current))
	for _, code := range current {
		known[code] = struct{}{}
	}
	result := make([]string, 0, len(current))
	seen := make(map[string]struct{}, len(order))
	for _, code := range order {
		if _, ok := known[code]; !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		result = append(result, code)
		seen[code] = struct{}{}
	}
	for _, code := range current {
		if _, ok := seen[code]; !ok {
			result = append(result, code)
		}
	}
	return result
}
