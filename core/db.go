package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings drops orderings on fields that are not in `allowed`.
// Ordering fields end up in raw SQL, so they must never come straight from user input.
func AllowedOrderings(orderings []DBOrdering, allowed ...string) []DBOrdering {
	if len(orderings) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		set[f] = struct{}{}
	}
	clean := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if _, ok := set[ord.Field]; ok {
			clean = append(clean, ord)
		}
	}
	return clean
}
