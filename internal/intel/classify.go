package intel

// EditKind classifies the net effect of an edit on the document.
type EditKind int

const (
	// EditNone indicates no classifiable change.
	EditNone EditKind = iota

	// EditInsertion indicates characters were added.
	EditInsertion

	// EditDeletion indicates characters were removed.
	EditDeletion
)

// String returns the edit kind name.
func (k EditKind) String() string {
	switch k {
	case EditNone:
		return "none"
	case EditInsertion:
		return "insertion"
	case EditDeletion:
		return "deletion"
	default:
		return "unknown"
	}
}

// Edit is the classification of one observed edit: what happened and how
// many characters it covered.
type Edit struct {
	Kind  EditKind
	Count int
}

// Classify derives an edit classification from two observed regions: the
// selection remembered before the edit and the selection observed after it.
// It is a pure function. A nil region on either side, or regions from
// different files, classify as EditNone; so does an edit with no net width
// change.
func Classify(prev, cur *ViewRegion) Edit {
	if prev == nil || cur == nil || prev.File != cur.File {
		return Edit{Kind: EditNone}
	}

	switch {
	case cur.End > prev.End:
		return Edit{Kind: EditInsertion, Count: cur.End - prev.End}
	case cur.End < prev.End:
		return Edit{Kind: EditDeletion, Count: prev.End - cur.End}
	default:
		return Edit{Kind: EditNone}
	}
}
