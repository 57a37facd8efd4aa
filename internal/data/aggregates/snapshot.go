package aggregates

// restorer puts caller-owned values back after a write that did not commit, so a retried
// object carries no store-assigned ids, timestamps or versions.
type restorer []func()

func (r *restorer) add(fn func()) { *r = append(*r, fn) }

func (r restorer) restore() {
	for i := len(r) - 1; i >= 0; i-- {
		r[i]()
	}
}

// keepValue records *p as it is now.
func keepValue[T any](r *restorer, p *T) {
	if p == nil {
		return
	}
	saved := *p
	r.add(func() { *p = saved })
}

// keepSlice records the order of items and the value behind each element.
func keepSlice[T any](r *restorer, items []*T) {
	if len(items) == 0 {
		return
	}
	order := append([]*T(nil), items...)
	saved := make([]T, len(items))
	for i, it := range items {
		if it != nil {
			saved[i] = *it
		}
	}
	r.add(func() {
		copy(items, order)
		for i, it := range order {
			if it != nil {
				*it = saved[i]
			}
		}
	})
}
