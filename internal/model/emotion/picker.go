package emotion

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnknownTag     = errors.New("unknown emotion tag")
	ErrUnknownGroup   = errors.New("unknown emotion group")
	ErrEmptySelection = errors.New("no emotions selected")
)

// Separator joins confirmed tags into the stored emotions field.
const Separator = ", "

// Picker is the multi-select sub-flow of the emotions step.
// Entering the step creates one with NewPicker; Confirm is its only exit that yields a value.
type Picker struct {
	focus    string
	selected map[string]struct{}
}

// NewPicker enters the sub-flow with nothing selected and the first group focused.
func NewPicker() *Picker {
	return &Picker{focus: taxonomy[0].ID, selected: make(map[string]struct{})}
}

// Focus switches the group whose tags are offered.
func (p *Picker) Focus(groupID string) error {
	if _, ok := FindGroup(groupID); !ok {
		return ErrUnknownGroup
	}
	p.focus = groupID
	return nil
}

func (p *Picker) Focused() Group {
	g, _ := FindGroup(p.focus)
	return g
}

// Toggle flips the tag and reports whether it is now selected.
func (p *Picker) Toggle(tag string) (bool, error) {
	if !IsKnownTag(tag) {
		return false, ErrUnknownTag
	}
	if _, ok := p.selected[tag]; ok {
		delete(p.selected, tag)
		return false, nil
	}
	p.selected[tag] = struct{}{}
	return true, nil
}

func (p *Picker) IsSelected(tag string) bool {
	_, ok := p.selected[tag]
	return ok
}

func (p *Picker) Len() int { return len(p.selected) }

// Selected lists the chosen tags in taxonomy order.
func (p *Picker) Selected() []string {
	tags := make([]string, 0, len(p.selected))
	for tag := range p.selected {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tagOrder[tags[i]] < tagOrder[tags[j]] })
	return tags
}

// Confirm serialises the selection. An empty selection is rejected and leaves the picker untouched.
func (p *Picker) Confirm() (string, error) {
	if len(p.selected) == 0 {
		return "", ErrEmptySelection
	}
	return strings.Join(p.Selected(), Separator), nil
}

func (p *Picker) Clone() *Picker {
	if p == nil {
		return nil
	}
	cp := &Picker{focus: p.focus, selected: make(map[string]struct{}, len(p.selected))}
	for tag := range p.selected {
		cp.selected[tag] = struct{}{}
	}
	return cp
}
