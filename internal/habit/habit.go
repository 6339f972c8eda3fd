// ABOUTME: Habit tree node, forest type, and recursive walks over the tree
// ABOUTME: JSON codec keeps unknown fields so documents round-trip intact

package habit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Habit is a single node in the habit forest.
type Habit struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Streak      int      `json:"streak"`
	SubHabits   []*Habit `json:"subHabits"`

	// Extra holds JSON fields outside the canonical schema, keyed by name.
	Extra map[string]json.RawMessage `json:"-"`
}

// MaxHabitID is the largest ID a habit may carry. It is the largest integer
// a JSON number represents exactly in every client.
const MaxHabitID int64 = 1<<53 - 1

// Forest is the ordered sequence of root habits.
type Forest []*Habit

// knownFields are the JSON keys decoded into Habit's typed fields.
var knownFields = []string{"id", "title", "description", "completed", "streak", "subHabits"}

// New returns a fresh habit with no children, not completed and a zero streak.
func New(id int, title, description string) *Habit {
	return &Habit{
		ID:          id,
		Title:       title,
		Description: description,
		SubHabits:   []*Habit{},
	}
}

// AddSubHabit appends child to h's children.
func (h *Habit) AddSubHabit(child *Habit) {
	h.SubHabits = append(h.SubHabits, child)
}

// habitFields is Habit without its methods, so encoding does not recurse.
type habitFields Habit

// UnmarshalJSON decodes the canonical fields and stashes everything else in Extra.
func (h *Habit) UnmarshalJSON(data []byte) error {
	var fields habitFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(raw, k)
	}

	*h = Habit(fields)
	if h.SubHabits == nil {
		h.SubHabits = []*Habit{}
	}
	h.Extra = nil
	if len(raw) > 0 {
		h.Extra = raw
	}
	return nil
}

// MarshalJSON encodes the canonical fields plus any carried-through Extra fields.
// Canonical fields win over an Extra entry of the same name.
func (h Habit) MarshalJSON() ([]byte, error) {
	fields := habitFields(h)
	if fields.SubHabits == nil {
		fields.SubHabits = []*Habit{}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if len(h.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range h.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Find returns the first habit with the given ID in pre-order, or nil.
func (f Forest) Find(id int) *Habit {
	return find(f, id)
}

func find(habits []*Habit, id int) *Habit {
	for _, h := range habits {
		if h.ID == id {
			return h
		}
		if found := find(h.SubHabits, id); found != nil {
			return found
		}
	}
	return nil
}

// MaxID returns the largest ID anywhere in the forest, or 0 when it is empty.
func (f Forest) MaxID() int {
	return maxID(f)
}

func maxID(habits []*Habit) int {
	highest := 0
	for _, h := range habits {
		highest = max(highest, h.ID, maxID(h.SubHabits))
	}
	return highest
}

// NextID is the ID the next created habit receives.
func (f Forest) NextID() int {
	return f.MaxID() + 1
}

// Remove deletes the first habit with the given ID, together with its
// subtree, from whichever sequence holds it. At each level the direct
// children are scanned before descending. Returns the removed habit, or nil.
func (f *Forest) Remove(id int) *Habit {
	roots := []*Habit(*f)
	removed := remove(&roots, id)
	*f = Forest(roots)
	return removed
}

func remove(habits *[]*Habit, id int) *Habit {
	for i, h := range *habits {
		if h.ID == id {
			*habits = append((*habits)[:i:i], (*habits)[i+1:]...)
			return h
		}
	}
	for _, h := range *habits {
		if removed := remove(&h.SubHabits, id); removed != nil {
			return removed
		}
	}
	return nil
}

// SubtreeIDs returns h's ID followed by every ID below it, in pre-order.
func (h *Habit) SubtreeIDs() []int {
	ids := []int{h.ID}
	for _, sub := range h.SubHabits {
		ids = append(ids, sub.SubtreeIDs()...)
	}
	return ids
}

// Count returns the number of habits in the forest at every depth.
func (f Forest) Count() int {
	n := 0
	for _, h := range f {
		n += 1 + h.Descendants()
	}
	return n
}

// Descendants returns how many habits sit below h.
func (h *Habit) Descendants() int {
	return Forest(h.SubHabits).Count()
}

// Render writes the forest as an indented checklist, two spaces per level:
//
//	- [x] Drink water (Streak: 3)
//	  - [ ] Morning glass (Streak: 0)
func (f Forest) Render(w io.Writer) error {
	for _, h := range f {
		if err := h.render(w, 0); err != nil {
			return err
		}
	}
	return nil
}

func (h *Habit) render(w io.Writer, indent int) error {
	mark := " "
	if h.Completed {
		mark = "x"
	}
	if _, err := fmt.Fprintf(w, "%s- [%s] %s (Streak: %d)\n", strings.Repeat(" ", indent), mark, h.Title, h.Streak); err != nil {
		return err
	}
	for _, sub := range h.SubHabits {
		if err := sub.render(w, indent+2); err != nil {
			return err
		}
	}
	return nil
}
