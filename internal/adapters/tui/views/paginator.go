package views

// Paginator keeps a cursor over a list and the page of rows that holds it
type Paginator struct {
	pageSize   int
	pageOffset int
	cursor     int
	totalItems int
}

// NewPaginator creates a new paginator with the given page size
func NewPaginator(pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Paginator{pageSize: pageSize}
}

// SetPageSize changes the number of visible rows, after a resize
func (p *Paginator) SetPageSize(size int) {
	if size <= 0 {
		size = 1
	}
	p.pageSize = size
	p.ensureCursorInPage()
}

// SetTotal sets the total number of items and clamps the cursor
func (p *Paginator) SetTotal(total int) {
	p.totalItems = total
	if p.cursor >= total && total > 0 {
		p.cursor = total - 1
	}
	if p.cursor < 0 || total == 0 {
		p.cursor = 0
	}
	p.ensureCursorInPage()
}

// Cursor returns the current cursor position (absolute index)
func (p *Paginator) Cursor() int {
	return p.cursor
}

// SetCursor moves the cursor to pos, clamped to the list
func (p *Paginator) SetCursor(pos int) {
	if pos >= p.totalItems {
		pos = p.totalItems - 1
	}
	if pos < 0 {
		pos = 0
	}
	p.cursor = pos
	p.ensureCursorInPage()
}

// CursorUp moves the cursor up by one
func (p *Paginator) CursorUp() bool {
	if p.cursor > 0 {
		p.cursor--
		p.ensureCursorInPage()
		return true
	}
	return false
}

// CursorDown moves the cursor down by one
func (p *Paginator) CursorDown() bool {
	if p.cursor < p.totalItems-1 {
		p.cursor++
		p.ensureCursorInPage()
		return true
	}
	return false
}

// VisibleRange returns the start and end indices for the current page
func (p *Paginator) VisibleRange() (start, end int) {
	start = p.pageOffset
	end = min(p.pageOffset+p.pageSize, p.totalItems)
	return
}

// TotalPages returns the total number of pages
func (p *Paginator) TotalPages() int {
	if p.totalItems == 0 {
		return 1
	}
	return (p.totalItems + p.pageSize - 1) / p.pageSize
}

// CurrentPage returns the current page number (1-based)
func (p *Paginator) CurrentPage() int {
	return p.pageOffset/p.pageSize + 1
}

// NextPage moves to the next page
func (p *Paginator) NextPage() bool {
	if p.pageOffset+p.pageSize < p.totalItems {
		p.pageOffset += p.pageSize
		p.cursor = p.pageOffset
		return true
	}
	return false
}

// PrevPage moves to the previous page
func (p *Paginator) PrevPage() bool {
	if p.pageOffset > 0 {
		p.pageOffset = max(p.pageOffset-p.pageSize, 0)
		p.cursor = p.pageOffset
		return true
	}
	return false
}

func (p *Paginator) ensureCursorInPage() {
	if p.cursor < p.pageOffset || p.cursor >= p.pageOffset+p.pageSize {
		p.pageOffset = (p.cursor / p.pageSize) * p.pageSize
	}
}
