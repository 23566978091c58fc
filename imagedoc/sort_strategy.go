package imagedoc

import (
	"sort"

	"github.com/maruel/natural"
)

// Sort method constants
const (
	SortNatural    = 0 // Natural sort order (e.g., page1, page2, page10)
	SortSimple     = 1 // Simple string sort (lexicographical)
	SortEntryOrder = 2 // Keep archive / directory order
)

// SortStrategy orders the pages of a document by entry name
type SortStrategy interface {
	// Sort returns a new sorted slice without modifying the original
	Sort(entries []Entry) []Entry
	// Name returns the human-readable name of the strategy
	Name() string
	// ID returns the numeric identifier for config storage
	ID() int
}

// NaturalSortStrategy implements natural sorting using maruel/natural
type NaturalSortStrategy struct{}

func (s *NaturalSortStrategy) Sort(entries []Entry) []Entry {
	result := cloneEntries(entries)
	sort.SliceStable(result, func(i, j int) bool {
		return natural.Less(result[i].Name, result[j].Name)
	})
	return result
}

func (s *NaturalSortStrategy) Name() string { return "Natural" }
func (s *NaturalSortStrategy) ID() int      { return SortNatural }

// SimpleSortStrategy implements lexicographical sorting
type SimpleSortStrategy struct{}

func (s *SimpleSortStrategy) Sort(entries []Entry) []Entry {
	result := cloneEntries(entries)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (s *SimpleSortStrategy) Name() string { return "Simple" }
func (s *SimpleSortStrategy) ID() int      { return SortSimple }

// EntryOrderSortStrategy preserves the original order
type EntryOrderSortStrategy struct{}

func (s *EntryOrderSortStrategy) Sort(entries []Entry) []Entry { return cloneEntries(entries) }
func (s *EntryOrderSortStrategy) Name() string                 { return "Entry Order" }
func (s *EntryOrderSortStrategy) ID() int                      { return SortEntryOrder }

func cloneEntries(entries []Entry) []Entry {
	result := make([]Entry, len(entries))
	copy(result, entries)
	return result
}

// GetSortStrategy returns the strategy for a sort method ID
func GetSortStrategy(sortMethod int) SortStrategy {
	switch sortMethod {
	case SortSimple:
		return &SimpleSortStrategy{}
	case SortEntryOrder:
		return &EntryOrderSortStrategy{}
	default:
		return &NaturalSortStrategy{}
	}
}

// GetAllSortStrategies returns all available sort strategies
func GetAllSortStrategies() []SortStrategy {
	return []SortStrategy{
		&NaturalSortStrategy{},
		&SimpleSortStrategy{},
		&EntryOrderSortStrategy{},
	}
}
