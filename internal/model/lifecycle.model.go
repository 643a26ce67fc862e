package model

// LifecycleState is the shared lifecycle of any report. The historical
// per-category status strings live on as display labels only; nothing
// compares raw status text.
type LifecycleState int

const (
	StateOpen LifecycleState = iota
	StateClosed
)

// statusLabels maps the shared lifecycle onto the category-specific
// vocabulary the tables historically stored.
var statusLabels = map[Category][2]string{
	CategoryDisaster:      {"Active", "Resolved"},
	CategoryMissingPerson: {"Active", "Closed"},
	CategoryAnimalRescue:  {"Pending", "Rescued"},
}

// StatusLabel returns the stored status string for a lifecycle state in
// this category.
func (c Category) StatusLabel(s LifecycleState) string {
	labels, ok := statusLabels[c]
	if !ok {
		return ""
	}
	if s == StateClosed {
		return labels[1]
	}
	return labels[0]
}

// StateFromLabel reverses StatusLabel. Unrecognized labels report as open,
// which is the safe direction for triage views.
func (c Category) StateFromLabel(label string) LifecycleState {
	if labels, ok := statusLabels[c]; ok && label == labels[1] {
		return StateClosed
	}
	return StateOpen
}
