// Package habit defines the habit tree and the recursive walks over it.
//
// # Data Model
//
// A Habit owns its children directly through SubHabits; there are no parent
// pointers. A Forest is the ordered sequence of root habits and is the unit
// that gets persisted.
//
//	[
//	  {"id": 1, "title": "Drink water", "description": "8 glasses/day",
//	   "completed": false, "streak": 0,
//	   "subHabits": [
//	     {"id": 2, "title": "Morning glass", "description": "...",
//	      "completed": false, "streak": 0, "subHabits": []}
//	   ]}
//	]
//
// IDs share a single space across every nesting level.
//
// # Unknown Fields
//
// JSON keys outside the canonical set are kept in Habit.Extra on decode and
// written back on encode, so documents edited by other tools survive a
// load/save cycle.
//
// # Tree Walks
//
// Find walks depth-first in pre-order: a node is checked before its
// children, and a root's whole subtree before the next root. Remove checks
// every habit at one level before descending into their children. IDs are
// unique, so both reach the same node on a well-formed forest.
package habit
