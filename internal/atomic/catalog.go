package atomic

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorPolicy decides what LoadCatalog does with a technique that fails to
// load.
type ErrorPolicy int

const (
	// AbortOnError returns the first ParseError. Used for explicit selections.
	AbortOnError ErrorPolicy = iota
	// SkipOnError records the error in Catalog.Errors and keeps going.
	SkipOnError
)

// Catalog is the in-memory set of techniques for one run.
type Catalog struct {
	techniques []*Technique
	byID       map[string]*Technique
	byGUID     map[string]string // lower-cased guid → technique ID

	// Errors holds the techniques skipped under SkipOnError.
	Errors []error
}

func newCatalog() *Catalog {
	return &Catalog{
		byID:   make(map[string]*Technique),
		byGUID: make(map[string]string),
	}
}

// LoadCatalog loads the listed technique IDs from dirs, in order. With no
// IDs every technique folder found in dirs is loaded. A technique defined in
// several dirs is merged, earlier dirs first.
func LoadCatalog(dirs []string, ids []string, policy ErrorPolicy) (*Catalog, error) {
	if len(ids) == 0 {
		discovered, err := DiscoverTechniqueIDs(dirs)
		if err != nil {
			return nil, err
		}
		ids = discovered
	}

	cat := newCatalog()
	for _, id := range dedupe(ids) {
		t, err := loadMerged(dirs, id)
		if err == nil {
			err = cat.add(t)
		}
		if err != nil {
			if policy == AbortOnError {
				return nil, err
			}
			cat.Errors = append(cat.Errors, err)
		}
	}
	return cat, nil
}

func (c *Catalog) add(t *Technique) error {
	for _, test := range t.AtomicTests {
		if owner, ok := c.byGUID[strings.ToLower(test.GUID)]; ok {
			return &ParseError{
				Technique: t.ID,
				Err:       fmt.Errorf("guid %s of %q already defined by %s", test.GUID, test.Name, owner),
			}
		}
	}
	for _, test := range t.AtomicTests {
		c.byGUID[strings.ToLower(test.GUID)] = t.ID
	}
	c.techniques = append(c.techniques, t)
	c.byID[t.ID] = t
	return nil
}

// Techniques returns the techniques in load order.
func (c *Catalog) Techniques() []*Technique {
	out := make([]*Technique, len(c.techniques))
	copy(out, c.techniques)
	return out
}

// Len returns the number of techniques in the catalog.
func (c *Catalog) Len() int { return len(c.techniques) }

// TestCount returns the number of atomic tests across all techniques.
func (c *Catalog) TestCount() int {
	n := 0
	for _, t := range c.techniques {
		n += len(t.AtomicTests)
	}
	return n
}

// Lookup returns the technique with the given ID.
func (c *Catalog) Lookup(id string) (*Technique, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// ByGUID returns the atomic test with the given GUID and its technique ID.
func (c *Catalog) ByGUID(guid string) (string, AtomicTest, bool) {
	id, ok := c.byGUID[strings.ToLower(guid)]
	if !ok {
		return "", AtomicTest{}, false
	}
	for _, test := range c.byID[id].AtomicTests {
		if strings.EqualFold(test.GUID, guid) {
			return id, test, true
		}
	}
	return "", AtomicTest{}, false
}

// Without returns a catalog holding every technique except the given IDs.
func (c *Catalog) Without(ids []string) *Catalog {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := newCatalog()
	for _, t := range c.techniques {
		if drop[t.ID] {
			continue
		}
		// GUIDs were already checked for uniqueness when c was built.
		_ = out.add(t)
	}
	out.Errors = c.Errors
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
