package curriculum

import "sort"

// orderKey is the sort key of a lesson in the flattened order.
type orderKey struct {
	moduleOrder int
	moduleID    string
	lessonOrder int
	lessonID    string
}

func (k orderKey) less(o orderKey) bool {
	if k.moduleOrder != o.moduleOrder {
		return k.moduleOrder < o.moduleOrder
	}
	if k.moduleID != o.moduleID {
		return k.moduleID < o.moduleID
	}
	if k.lessonOrder != o.lessonOrder {
		return k.lessonOrder < o.lessonOrder
	}
	return k.lessonID < o.lessonID
}

// BuildOrder flattens the curriculum into a single sequence of lesson IDs:
// modules by ascending order, then lessons by ascending order within their module.
// Order ties are broken by ID (lexicographic), so the result only depends on the snapshot.
// A module without lessons contributes nothing; an empty curriculum gives an empty sequence.
func BuildOrder(c Curriculum) []string {
	keys := make([]orderKey, 0, c.LessonCount())
	for modID, mod := range c {
		for lID, l := range mod.Lessons {
			keys = append(keys, orderKey{
				moduleOrder: mod.Order,
				moduleID:    modID,
				lessonOrder: l.Order,
				lessonID:    lID,
			})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	order := make([]string, 0, len(keys))
	for _, k := range keys {
		order = append(order, k.lessonID)
	}
	return order
}

// IndexOf returns the position of `lessonID` in `order`, or -1.
func IndexOf(order []string, lessonID string) int {
	for i, id := range order {
		if id == lessonID {
			return i
		}
	}
	return -1
}
