package emotion

// Group is a family of related emotion tags shown together in the picker.
type Group struct {
	ID    string
	Label string
	Tags  []string
}

var taxonomy = []Group{
	{ID: "anger", Label: "😠 Anger", Tags: []string{"Anger", "Frustration", "Irritation", "Resentment"}},
	{ID: "fear", Label: "😨 Fear", Tags: []string{"Fear", "Anxiety", "Worry", "Shame"}},
	{ID: "sadness", Label: "😢 Sadness", Tags: []string{"Sadness", "Loneliness", "Disappointment", "Guilt"}},
	{ID: "joy", Label: "😊 Joy", Tags: []string{"Joy", "Relief", "Gratitude", "Pride"}},
	{ID: "calm", Label: "😌 Calm", Tags: []string{"Calm", "Interest", "Tenderness", "Surprise"}},
}

// tagOrder gives the taxonomy position of every tag.
var tagOrder = func() map[string]int {
	order := make(map[string]int)
	for _, g := range taxonomy {
		for _, tag := range g.Tags {
			order[tag] = len(order)
		}
	}
	return order
}()

// Groups returns a copy of the fixed taxonomy.
func Groups() []Group {
	out := make([]Group, len(taxonomy))
	for i, g := range taxonomy {
		out[i] = Group{ID: g.ID, Label: g.Label, Tags: append([]string(nil), g.Tags...)}
	}
	return out
}

func FindGroup(id string) (Group, bool) {
	for _, g := range taxonomy {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

func IsKnownTag(tag string) bool {
	_, ok := tagOrder[tag]
	return ok
}
