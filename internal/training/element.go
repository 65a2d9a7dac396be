package training

// Aspect groups elements the way the combined rubric scores them.
type Aspect string

const (
	AspectExpression Aspect = "表現面"
	AspectContent    Aspect = "内容面"
)

// Element is one skill dimension used to judge a refusal.
type Element struct {
	ID          string
	Name        string
	Aspect      Aspect
	Description string
}

// Set is an ordered, immutable collection of elements.
type Set []Element

var elements = Set{
	{
		ID:          "E1",
		Name:        "相手との関係性に応じた適切さ",
		Aspect:      AspectExpression,
		Description: "相手との関係性に応じた適切な言葉遣い、敬語、直接的な断り表現を避けているか。",
	},
	{
		ID:          "E2",
		Name:        "謝罪の言葉の有無と適切さ",
		Aspect:      AspectExpression,
		Description: "謝罪の言葉が適切に使われているか。",
	},
	{
		ID:          "E3",
		Name:        "断りの意思の明確さ",
		Aspect:      AspectContent,
		Description: "曖昧さがなく、断りの意思がはっきりと伝わるか。",
	},
	{
		ID:          "E4",
		Name:        "理由の提示の有無と適切さ",
		Aspect:      AspectContent,
		Description: "納得できる理由か、具体性があるか。",
	},
	{
		ID:          "E5",
		Name:        "代替案の提示の有無と適切さ",
		Aspect:      AspectContent,
		Description: "別の機会や方法を提案しているか。",
	},
	{
		ID:          "E6",
		Name:        "相手への配慮 (感謝の言葉など)",
		Aspect:      AspectContent,
		Description: "相手の誘い自体を否定せず、感謝の言葉があるか。",
	},
}

// Elements returns the fixed six-element set in display order.
// The returned slice is a copy; callers may not mutate the catalogue.
func Elements() Set {
	out := make(Set, len(elements))
	copy(out, elements)
	return out
}

// Lookup returns the element with the given ID.
func (s Set) Lookup(id string) (Element, bool) {
	for _, e := range s {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// Contains reports whether id names an element of the set.
func (s Set) Contains(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

// IDs returns the element IDs in display order.
func (s Set) IDs() []string {
	ids := make([]string, len(s))
	for i, e := range s {
		ids[i] = e.ID
	}
	return ids
}

// DisplayName returns "ID Name", or the raw id for unknown elements.
func (s Set) DisplayName(id string) string {
	if e, ok := s.Lookup(id); ok {
		return e.ID + " " + e.Name
	}
	return id
}
