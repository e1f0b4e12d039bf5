package analysis

// PathSeparator joins playlist names into a full playlist path.
const PathSeparator = " / "

// PlaylistIndex maps a track id to every playlist path that references it,
// in traversal order. A track listed in several playlists has several paths.
type PlaylistIndex map[string][]string

// Paths returns the playlist paths for a track id, never nil.
func (idx PlaylistIndex) Paths(trackID string) []string {
	paths := idx[trackID]
	if len(paths) == 0 {
		return []string{}
	}
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

type frame struct {
	node *Node
	path string
}

// IndexPlaylists walks the playlist tree depth-first from root and returns the
// track id index. The root itself adds no path segment. A nil root yields an
// empty index.
func IndexPlaylists(root *Node) PlaylistIndex {
	index := PlaylistIndex{}
	if root == nil {
		return index
	}

	stack := []frame{{node: root, path: ""}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.node.IsPlaylist() {
			for _, ref := range top.node.Tracks {
				if ref.Key == "" {
					continue
				}
				index[ref.Key] = append(index[ref.Key], top.path)
			}
			continue
		}

		// Push in reverse so children pop in document order.
		for i := len(top.node.Children) - 1; i >= 0; i-- {
			child := &top.node.Children[i]
			stack = append(stack, frame{node: child, path: joinPath(top.path, child.Name.Value)})
		}
	}
	return index
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}
