package cards

import "strings"

const (
	imageExt    = ".png"
	frontMarker = "_front"
	backMarker  = "_back"
)

// File is an uploaded file: a name and its raw byte payload.
type File struct {
	Name string
	Data []byte
}

// PairResult is the outcome of pairing a batch of uploaded files.
//
// Rejected holds files that carried a side marker but whose opposite side
// was missing from the batch. Unrecognized holds files the engine could not
// classify at all: names without the image extension, or image files with
// no side marker. A file used by an emitted card never appears in either.
type PairResult struct {
	Cards        []Card
	Rejected     []File
	Unrecognized []File
}

// ParseSide reports which side a filename encodes. The markers are matched
// case-insensitively, front before back.
func ParseSide(name string) (Side, bool) {
	lower := strings.ToLower(name)
	if strings.Contains(lower, frontMarker) {
		return SideFront, true
	}
	if strings.Contains(lower, backMarker) {
		return SideBack, true
	}
	return "", false
}

// BaseName returns the stem shared by a card's front and back files: the
// lowercased name with the first occurrence of each side marker and the
// image extension removed.
func BaseName(name string) string {
	base := strings.ToLower(name)
	base = strings.Replace(base, frontMarker, "", 1)
	base = strings.Replace(base, backMarker, "", 1)
	return strings.TrimSuffix(base, imageExt)
}

// Pair groups uploaded files into front/back pairs by naming convention and
// builds a Card for every complete pair. Groups missing either side land in
// Rejected; files the convention cannot classify land in Unrecognized.
//
// Pair is a pure transformation: it assigns fresh ids but populates no
// display handles and touches no shared state. Cards are emitted in
// first-seen order of their base name.
func Pair(files []File) PairResult {
	var result PairResult

	groups := make(map[string]map[Side]File)
	var order []string
	for _, f := range files {
		if !strings.HasSuffix(strings.ToLower(f.Name), imageExt) {
			result.Unrecognized = append(result.Unrecognized, f)
			continue
		}
		side, ok := ParseSide(f.Name)
		if !ok {
			result.Unrecognized = append(result.Unrecognized, f)
			continue
		}
		base := BaseName(f.Name)
		if groups[base] == nil {
			groups[base] = make(map[Side]File)
			order = append(order, base)
		}
		groups[base][side] = f
	}

	for _, base := range order {
		group := groups[base]
		front, hasFront := group[SideFront]
		back, hasBack := group[SideBack]
		if hasFront && hasBack {
			result.Cards = append(result.Cards, Card{
				ID:    NewID(),
				Name:  base,
				Tags:  []string{},
				Front: Face{Side: SideFront, Data: front.Data, FileName: front.Name, Tags: []string{}},
				Back:  Face{Side: SideBack, Data: back.Data, FileName: back.Name, Tags: []string{}},
			})
			continue
		}
		if hasFront {
			result.Rejected = append(result.Rejected, front)
		}
		if hasBack {
			result.Rejected = append(result.Rejected, back)
		}
	}

	return result
}
