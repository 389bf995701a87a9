package curriculum_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mentora/core/curriculum"
	testutil "github.com/trezcool/mentora/tests"
)

func lessons(orders map[string]int) map[string]curriculum.Lesson {
	ls := make(map[string]curriculum.Lesson, len(orders))
	for id, order := range orders {
		ls[id] = curriculum.Lesson{ID: id, Title: strings.ToUpper(id), Order: order, UnlockCode: id}
	}
	return ls
}

func TestBuildOrder(t *testing.T) {
	tests := []struct {
		name string
		c    curriculum.Curriculum
		want []string
	}{
		{name: "nil curriculum", c: nil, want: []string{}},
		{name: "empty curriculum", c: curriculum.Curriculum{}, want: []string{}},
		{
			name: "module without lessons",
			c: curriculum.Curriculum{
				"m1": {ID: "m1", Order: 1},
				"m2": {ID: "m2", Order: 2, Lessons: lessons(map[string]int{"l1": 1})},
			},
			want: []string{"l1"},
		},
		{
			name: "lessons by order within module",
			c: curriculum.Curriculum{
				"module_01": {ID: "module_01", Order: 1, Lessons: lessons(map[string]int{"lesson_01": 1, "lesson_02": 2})},
			},
			want: []string{"lesson_01", "lesson_02"},
		},
		{
			name: "module order wins over module id",
			c: curriculum.Curriculum{
				"module_01": {ID: "module_01", Order: 2, Lessons: lessons(map[string]int{"a": 1, "b": 2})},
				"module_02": {ID: "module_02", Order: 1, Lessons: lessons(map[string]int{"c": 1, "d": 2})},
			},
			want: []string{"c", "d", "a", "b"},
		},
		{
			name: "lesson order wins over lesson id",
			c: curriculum.Curriculum{
				"m": {ID: "m", Order: 1, Lessons: lessons(map[string]int{"a": 3, "b": 1, "c": 2})},
			},
			want: []string{"b", "c", "a"},
		},
		{
			name: "ties broken by id",
			c: curriculum.Curriculum{
				"mb": {ID: "mb", Order: 1, Lessons: lessons(map[string]int{"z": 1, "y": 1})},
				"ma": {ID: "ma", Order: 1, Lessons: lessons(map[string]int{"x": 1})},
			},
			want: []string{"x", "y", "z"},
		},
		{
			name: "negative orders",
			c: curriculum.Curriculum{
				"m1": {ID: "m1", Order: 0, Lessons: lessons(map[string]int{"l2": 0})},
				"m2": {ID: "m2", Order: -1, Lessons: lessons(map[string]int{"l1": 5})},
			},
			want: []string{"l1", "l2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, curriculum.BuildOrder(tt.c))
		})
	}
}

func TestBuildOrder_Properties(t *testing.T) {
	c := curriculum.Curriculum{}
	for m := 0; m < 7; m++ {
		orders := make(map[string]int)
		for l := 0; l < 9; l++ {
			// plenty of duplicated orders
			orders[fmt.Sprintf("m%d-l%d", m, l)] = (l * 7) % 4
		}
		id := fmt.Sprintf("m%d", m)
		c[id] = curriculum.Module{ID: id, Order: (m * 5) % 3, Lessons: lessons(orders)}
	}

	first := curriculum.BuildOrder(c)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, curriculum.BuildOrder(c), "order must be deterministic")
	}

	// completeness: no duplicates, no omissions
	assert.Len(t, first, c.LessonCount())
	seen := make(map[string]bool, len(first))
	for _, id := range first {
		assert.False(t, seen[id], "duplicated lesson %s", id)
		seen[id] = true
		_, ok := c.Lesson(id)
		assert.True(t, ok, "unknown lesson %s", id)
	}

	// ordering law
	pos := make(map[string]int, len(first))
	for i, id := range first {
		pos[id] = i
	}
	for _, modA := range c {
		for idA, a := range modA.Lessons {
			for _, modB := range c {
				for idB, b := range modB.Lessons {
					if modA.ID == modB.ID && a.Order < b.Order {
						assert.Less(t, pos[idA], pos[idB], "%s must precede %s", idA, idB)
					}
					if modA.Order < modB.Order {
						assert.Less(t, pos[idA], pos[idB], "%s must precede %s", idA, idB)
					}
				}
			}
		}
	}
}

func TestBuildOrder_Golden(t *testing.T) {
	c := curriculum.Curriculum{
		"empty": {ID: "empty", Order: 0},
		"basics": {ID: "basics", Order: 1, Lessons: lessons(map[string]int{
			"b2": 2, "b1": 1, "b-tie-z": 3, "b-tie-a": 3,
		})},
		"alpha":    {ID: "alpha", Order: 2, Lessons: lessons(map[string]int{"x1": 1})},
		"advanced": {ID: "advanced", Order: 2, Lessons: lessons(map[string]int{"a1": 1})},
	}

	g := goldie.New(t)
	g.Assert(t, "flattened_order", []byte(strings.Join(curriculum.BuildOrder(c), "\n")+"\n"))
}

func TestIndexOf(t *testing.T) {
	order := []string{"a", "b", "c"}
	assert.Equal(t, 0, curriculum.IndexOf(order, "a"))
	assert.Equal(t, 2, curriculum.IndexOf(order, "c"))
	assert.Equal(t, -1, curriculum.IndexOf(order, "z"))
	assert.Equal(t, -1, curriculum.IndexOf(nil, "a"))
}

func TestCurriculum_Helpers(t *testing.T) {
	c := testutil.SampleCurriculum()

	first, ok := c.FirstLessonID()
	assert.True(t, ok)
	assert.Equal(t, "welcome", first)

	_, ok = curriculum.Curriculum{}.FirstLessonID()
	assert.False(t, ok)

	assert.Equal(t, "Habits", c.LessonTitle("lesson_02"))
	assert.Equal(t, "Unknown Lesson", c.LessonTitle("lesson_99"))
	assert.Equal(t, 4, c.LessonCount())

	outline := c.Outline()
	if assert.Len(t, outline, 4) {
		assert.Equal(t, "welcome", outline[0].ID)
		assert.Equal(t, "Introduction", outline[0].ModuleTitle)
		assert.Equal(t, "lesson_02", outline[3].ID)
		assert.Equal(t, 3, outline[3].Position)
	}
}
