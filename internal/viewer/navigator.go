package viewer

const (
	portraitWidth  = 500
	portraitHeight = 700
)

// Dimensions returns the book size for an orientation tag. Landscape books
// swap the portrait dimensions.
func Dimensions(orientation string) (width, height int) {
	if orientation == "landscape" {
		return portraitHeight, portraitWidth
	}
	return portraitWidth, portraitHeight
}

// Navigator walks a fixed number of pages. It never touches the page list.
type Navigator struct {
	count   int
	current int
}

func NewNavigator(pageCount, start int) *Navigator {
	n := &Navigator{count: pageCount}
	n.current = n.clamp(start)
	return n
}

func (n *Navigator) Next() int {
	n.current = n.clamp(n.current + 1)
	return n.current
}

func (n *Navigator) Prev() int {
	n.current = n.clamp(n.current - 1)
	return n.current
}

func (n *Navigator) PageCount() int   { return n.count }
func (n *Navigator) CurrentPage() int { return n.current }

func (n *Navigator) HasNext() bool { return n.current < n.count-1 }
func (n *Navigator) HasPrev() bool { return n.current > 0 }

func (n *Navigator) clamp(i int) int {
	if n.count == 0 || i < 0 {
		return 0
	}
	if i >= n.count {
		return n.count - 1
	}
	return i
}
