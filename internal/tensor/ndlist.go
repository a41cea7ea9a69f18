package tensor

import "errors"

// NDList is an ordered list of handles passed between pipeline stages and
// compute blocks. Handles may be named for lookup; names need not be unique.
type NDList struct {
	handles []*Handle
}

// NewNDList creates a list holding handles in order.
func NewNDList(handles ...*Handle) *NDList {
	return &NDList{handles: append([]*Handle(nil), handles...)}
}

// Add appends handles to the list.
func (l *NDList) Add(handles ...*Handle) {
	l.handles = append(l.handles, handles...)
}

// Len returns the number of handles.
func (l *NDList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.handles)
}

// Get returns the i-th handle.
func (l *NDList) Get(i int) *Handle {
	return l.handles[i]
}

// Head returns the first handle. Panics on an empty list.
func (l *NDList) Head() *Handle {
	return l.handles[0]
}

// ByName returns the first handle with the given name.
func (l *NDList) ByName(name string) (*Handle, bool) {
	for _, h := range l.handles {
		if h.Name() == name {
			return h, true
		}
	}
	return nil, false
}

// Handles returns a copy of the handle slice.
func (l *NDList) Handles() []*Handle {
	if l == nil {
		return nil
	}
	return append([]*Handle(nil), l.handles...)
}

// WaitToRead waits on the read barrier of every handle.
func (l *NDList) WaitToRead() error {
	for _, h := range l.Handles() {
		if err := h.WaitToRead(); err != nil {
			return err
		}
	}
	return nil
}

// Attach transfers every handle in the list to m.
func (l *NDList) Attach(m *Manager) error {
	var errs []error
	for _, h := range l.Handles() {
		if err := m.Attach(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
