package merger

import "github.com/tekdi/user-microservice-sub001/search"

// contentKey identifies a logical lesson content regardless of which unit a
// duplicated event filed it under.
type contentKey struct {
	ContentID string
	LessonID  string
}

// contentPos addresses one Content node inside the document.
type contentPos struct {
	App, Course, Unit, Content int
}

// DedupeLessonTrackIDs enforces the event-delivery invariant: a
// lessonTrackId appears on at most one Content node across the whole
// document, and each (contentId, lessonId) key keeps exactly one node.
//
// Pass 1 selects the winning node per key from the nodes as delivered,
// before any lessonTrackId is stripped: a node carrying a lessonTrackId
// beats one without; between two carriers, and between two non-carriers,
// higher tracking.percentComplete wins.
//
// Pass 2 rebuilds the document keeping only winners, strips a
// lessonTrackId from any later winner repeating one already kept, and
// drops every Unit left empty.
//
// The document is reworked in place and returned; callers holding the
// original alongside the result must pass a clone.
func DedupeLessonTrackIDs(doc search.UserDocument) search.UserDocument {
	winners := make(map[contentKey]contentPos)

	for a := range doc.Applications {
		for c := range doc.Applications[a].Courses {
			for u := range doc.Applications[a].Courses[c].Units {
				unit := doc.Applications[a].Courses[c].Units[u]
				for i, node := range unit.Contents {
					key := contentKey{ContentID: node.ContentID, LessonID: node.LessonID}
					pos := contentPos{App: a, Course: c, Unit: u, Content: i}
					prev, ok := winners[key]
					if !ok || beats(node, contentAt(doc, prev)) {
						winners[key] = pos
					}
				}
			}
		}
	}

	winningPos := make(map[contentPos]bool, len(winners))
	for _, pos := range winners {
		winningPos[pos] = true
	}

	seenTrackIDs := make(map[string]bool)
	for a := range doc.Applications {
		for c := range doc.Applications[a].Courses {
			course := &doc.Applications[a].Courses[c]
			var units []search.Unit
			for u := range course.Units {
				var contents []search.Content
				for i, node := range course.Units[u].Contents {
					if !winningPos[contentPos{App: a, Course: c, Unit: u, Content: i}] {
						continue
					}
					if node.LessonTrackID != "" {
						if seenTrackIDs[node.LessonTrackID] {
							node.LessonTrackID = ""
						} else {
							seenTrackIDs[node.LessonTrackID] = true
						}
					}
					contents = append(contents, node)
				}
				if len(contents) > 0 {
					unit := course.Units[u]
					unit.Contents = contents
					units = append(units, unit)
				}
			}
			course.Units = units
		}
	}
	return doc
}

// beats reports whether challenger should replace incumbent as the winning
// node for their shared key.
func beats(challenger, incumbent search.Content) bool {
	challengerTracked := challenger.LessonTrackID != ""
	incumbentTracked := incumbent.LessonTrackID != ""
	if challengerTracked != incumbentTracked {
		return challengerTracked
	}
	return challenger.Tracking.PercentComplete > incumbent.Tracking.PercentComplete
}

func contentAt(doc search.UserDocument, pos contentPos) search.Content {
	return doc.Applications[pos.App].Courses[pos.Course].Units[pos.Unit].Contents[pos.Content]
}
