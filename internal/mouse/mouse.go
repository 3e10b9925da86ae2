// Package mouse maps terminal mouse events onto named screen regions.
package mouse

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	scrollDelta       = 3
	doubleClickWindow = 400 * time.Millisecond
)

// Rect is a cell rectangle. The right and bottom edges are exclusive.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Region is a named, hit-testable area with optional payload.
type Region struct {
	ID   string
	Rect Rect
	Data any
}

// HitMap holds the regions registered during the last render.
type HitMap struct {
	regions []Region
}

// NewHitMap returns an empty hit map.
func NewHitMap() *HitMap {
	return &HitMap{}
}

// Add registers a region. Later regions sit on top of earlier ones.
func (h *HitMap) Add(id string, r Rect, data any) {
	h.regions = append(h.regions, Region{ID: id, Rect: r, Data: data})
}

// AddRect is Add with the rectangle spelled out.
func (h *HitMap) AddRect(id string, x, y, w, hgt int, data any) {
	h.Add(id, Rect{X: x, Y: y, W: w, H: hgt}, data)
}

// Test returns the topmost region containing (x, y), or nil.
func (h *HitMap) Test(x, y int) *Region {
	for i := len(h.regions) - 1; i >= 0; i-- {
		if h.regions[i].Rect.Contains(x, y) {
			r := h.regions[i]
			return &r
		}
	}
	return nil
}

// Clear removes every region.
func (h *HitMap) Clear() {
	h.regions = h.regions[:0]
}

// Regions returns a copy of the registered regions.
func (h *HitMap) Regions() []Region {
	out := make([]Region, len(h.regions))
	copy(out, h.regions)
	return out
}

// ActionType classifies a mouse event after hit testing.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionClick
	ActionDoubleClick
	ActionScrollUp
	ActionScrollDown
	ActionScrollLeft
	ActionScrollRight
	ActionDrag
	ActionDragEnd
	ActionHover
)

// MouseAction is the interpreted form of a tea.MouseMsg.
type MouseAction struct {
	Type   ActionType
	Region *Region
	X, Y   int
	Delta  int
	DragDX int
	DragDY int
}

// ClickResult is returned by HandleClick.
type ClickResult struct {
	Region        *Region
	IsDoubleClick bool
}

// Handler tracks click timing and drag state on top of a HitMap.
type Handler struct {
	HitMap *HitMap

	now           func() time.Time
	lastClickID   string
	lastClickTime time.Time

	dragging       bool
	dragRegion     string
	dragStartX     int
	dragStartY     int
	dragStartValue int
}

// NewHandler returns a handler with an empty hit map.
func NewHandler() *Handler {
	return &Handler{HitMap: NewHitMap(), now: time.Now}
}

// Clear drops all regions. Call it at the start of each render.
func (h *Handler) Clear() {
	h.HitMap.Clear()
}

// HandleClick hit-tests a left click and detects double clicks on the
// same region.
func (h *Handler) HandleClick(x, y int) ClickResult {
	region := h.HitMap.Test(x, y)
	if region == nil {
		h.lastClickID = ""
		return ClickResult{}
	}

	now := h.now()
	double := h.lastClickID == region.ID && now.Sub(h.lastClickTime) < doubleClickWindow
	if double {
		h.lastClickID = ""
	} else {
		h.lastClickID = region.ID
		h.lastClickTime = now
	}
	return ClickResult{Region: region, IsDoubleClick: double}
}

// StartDrag begins a drag on region. value is whatever the drag adjusts,
// such as a pane width, captured at the start.
func (h *Handler) StartDrag(x, y int, region string, value int) {
	h.dragging = true
	h.dragRegion = region
	h.dragStartX = x
	h.dragStartY = y
	h.dragStartValue = value
}

// IsDragging reports whether a drag is active.
func (h *Handler) IsDragging() bool { return h.dragging }

// DragRegion returns the id of the dragged region.
func (h *Handler) DragRegion() string { return h.dragRegion }

// DragStartValue returns the value captured by StartDrag.
func (h *Handler) DragStartValue() int { return h.dragStartValue }

// DragDelta returns the offset of (x, y) from the drag start.
func (h *Handler) DragDelta(x, y int) (int, int) {
	return x - h.dragStartX, y - h.dragStartY
}

// EndDrag clears drag state.
func (h *Handler) EndDrag() {
	h.dragging = false
	h.dragRegion = ""
}

// HandleMouse interprets msg against the hit map.
func (h *Handler) HandleMouse(msg tea.MouseMsg) MouseAction {
	a := MouseAction{X: msg.X, Y: msg.Y}

	switch msg.Action {
	case tea.MouseActionRelease:
		if h.dragging {
			h.EndDrag()
			a.Type = ActionDragEnd
		}
		return a

	case tea.MouseActionMotion:
		if h.dragging {
			a.Type = ActionDrag
			a.DragDX, a.DragDY = h.DragDelta(msg.X, msg.Y)
			return a
		}
		a.Type = ActionHover
		a.Region = h.HitMap.Test(msg.X, msg.Y)
		return a
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.Region = h.HitMap.Test(msg.X, msg.Y)
		if msg.Shift {
			a.Type, a.Delta = ActionScrollLeft, -scrollDelta
		} else {
			a.Type, a.Delta = ActionScrollUp, -scrollDelta
		}
	case tea.MouseButtonWheelDown:
		a.Region = h.HitMap.Test(msg.X, msg.Y)
		if msg.Shift {
			a.Type, a.Delta = ActionScrollRight, scrollDelta
		} else {
			a.Type, a.Delta = ActionScrollDown, scrollDelta
		}
	// Trackpads with natural scrolling report horizontal wheels inverted.
	case tea.MouseButtonWheelLeft:
		a.Region = h.HitMap.Test(msg.X, msg.Y)
		a.Type, a.Delta = ActionScrollRight, scrollDelta
	case tea.MouseButtonWheelRight:
		a.Region = h.HitMap.Test(msg.X, msg.Y)
		a.Type, a.Delta = ActionScrollLeft, -scrollDelta
	case tea.MouseButtonLeft:
		res := h.HandleClick(msg.X, msg.Y)
		if res.Region == nil {
			return a
		}
		a.Region = res.Region
		a.Type = ActionClick
		if res.IsDoubleClick {
			a.Type = ActionDoubleClick
		}
	}
	return a
}
